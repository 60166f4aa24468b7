// file: internals/cli/status.go
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"schoolsync_backend/internals/features/status"
)

var flagAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Serve the read-only status API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		srv := status.NewServer(a.DB, a.Log)
		fa := srv.App()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-stop
			fa.Shutdown()
		}()

		a.Log.Infow("status server listening", "addr", flagAddr)
		return fa.Listen(flagAddr)
	},
}

func init() {
	statusCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(statusCmd)
}
