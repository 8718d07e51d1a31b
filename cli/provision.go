package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const filePermission = 0o644

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision resources",
	Long:  `Generate client identities and a shared channel for a coordinator and node deployment.`,
	Run: func(cmd *cobra.Command, args []string) {
		coordinatorID := uuid.NewString()
		coordinatorKey := uuid.NewString()
		nodeID := uuid.NewString()
		nodeKey := uuid.NewString()
		channelID := uuid.NewString()

		configContent := fmt.Sprintf(`[coordinator]
client_id = %q
client_key = %q
channel_id = %q

[node]
client_id = %q
client_key = %q
channel_id = %q
`,
			coordinatorID,
			coordinatorKey,
			channelID,
			nodeID,
			nodeKey,
			channelID,
		)

		if err := os.WriteFile("config.toml", []byte(configContent), filePermission); err != nil {
			logErrorCmd(*cmd, err)

			return
		}
		logSuccessCmd(*cmd, "Successfully created config.toml file")

		envContent := fmt.Sprintf(`# Fedstats Environment Configuration

# Coordinator Configuration
COORDINATOR_CLIENT_ID=%s
COORDINATOR_CLIENT_KEY=%s
COORDINATOR_CHANNEL_ID=%s

# Node Configuration
NODE_CLIENT_ID=%s
NODE_CLIENT_KEY=%s
NODE_CHANNEL_ID=%s`,
			coordinatorID,
			coordinatorKey,
			channelID,
			nodeID,
			nodeKey,
			channelID,
		)

		if err := os.WriteFile(".env", []byte(envContent), filePermission); err != nil {
			logErrorCmd(*cmd, err)

			return
		}
		logSuccessCmd(*cmd, "Successfully created .env file")
	},
}

func NewProvisionCmd() *cobra.Command {
	return provisionCmd
}
