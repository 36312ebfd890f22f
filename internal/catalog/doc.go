// Package catalog provides the installable MCP server templates.
//
// The built-in catalog mirrors the reference servers published by the
// Model Context Protocol project. A YAML file can replace it:
//
//	templates:
//	  - name: notes
//	    command: npx
//	    args: ["-y", "notes-mcp", "{{ env \"HOME\" }}/notes"]
//	    requiresFilePath: true
//	    env:
//	      NOTES_TOKEN: ""
//
// Args and env defaults are rendered once with text/template and the sprig
// function map. An env key with an empty default must be supplied by the
// user before the template can be installed.
package catalog
