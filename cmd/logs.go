package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"mcpdeck/internal/supervisor"

	"github.com/spf13/cobra"
)

var logsTail int

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Print the output of a server started by mcpdeck",
		Long: `Prints the combined stdout and stderr of a server. Only servers started
through mcpdeck have a log; servers launched by the host application log
elsewhere.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			path := supervisor.NewLocal(nil, cfg.StateDir, 0).LogPath(args[0])

			f, err := os.Open(path)
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no log for %s at %s; has it been started with mcpdeck start?", args[0], path)
			}
			if err != nil {
				return err
			}
			defer f.Close()
			return copyTail(cmd.OutOrStdout(), f, logsTail)
		},
	}
	cmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "Only print the last N lines (0 prints everything)")
	return cmd
}

// copyTail writes the last n lines of r to w, or all of r when n <= 0.
func copyTail(w io.Writer, r io.Reader, n int) error {
	if n <= 0 {
		_, err := io.Copy(w, r)
		return err
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	for _, line := range ring {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newLogsCmd())
}
