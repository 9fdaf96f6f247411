package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tradenest/intake-workflow-backend/internal/message"
	"github.com/tradenest/intake-workflow-backend/internal/monitor"
	"github.com/tradenest/intake-workflow-backend/internal/pricing"
	"github.com/tradenest/intake-workflow-backend/internal/providers/assetstore"
	"github.com/tradenest/intake-workflow-backend/internal/providers/bankverify"
	"github.com/tradenest/intake-workflow-backend/internal/providers/nationalid"
	"github.com/tradenest/intake-workflow-backend/internal/providers/phoneotp"
	"github.com/tradenest/intake-workflow-backend/internal/providers/records"
	"github.com/tradenest/intake-workflow-backend/internal/serve"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/submission"
	"github.com/tradenest/intake-workflow-backend/internal/uploads"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// Version is set through the ldflags at build time.
var Version = "dev"

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the intake workflow HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildServeOptions()
			if err != nil {
				return fmt.Errorf("configuring server: %w", err)
			}
			return serve.Serve(opts)
		},
	}

	cmd.Flags().Int("port", 8000, "port to listen on")
	cmd.Flags().StringSlice("cors-allowed-origins", []string{"*"}, "allowed CORS origins")
	cmd.Flags().String("phone-otp-url", "", "base URL of the phone OTP provider")
	cmd.Flags().String("phone-otp-api-key", "", "API key for the phone OTP provider")
	cmd.Flags().String("national-id-url", "", "base URL of the national ID verification provider")
	cmd.Flags().String("national-id-api-key", "", "API key for the national ID verification provider")
	cmd.Flags().String("bank-verify-url", "", "base URL of the bank account/UPI verification provider")
	cmd.Flags().String("bank-verify-api-key", "", "API key for the bank account/UPI verification provider")
	cmd.Flags().String("asset-store-url", "", "base URL of the asset upload gateway")
	cmd.Flags().String("asset-store-api-key", "", "API key for the asset upload gateway")
	cmd.Flags().String("records-url", "", "base URL of the records service")
	cmd.Flags().String("records-api-key", "", "API key for the records service")
	cmd.Flags().String("messenger-type", string(message.MessengerTypeDryRun), "messenger to use for welcome messages (TWILIO_SMS, DRY_RUN)")
	cmd.Flags().String("twilio-account-sid", "", "Twilio account SID")
	cmd.Flags().String("twilio-auth-token", "", "Twilio auth token")
	cmd.Flags().String("twilio-service-sid", "", "Twilio messaging service SID")
	cmd.Flags().String("pricing-multiplier", "1.0", "multiplier applied to the quoted amount when deriving the selling amount")
	cmd.Flags().String("pricing-offset", "0", "offset added to the quoted amount when deriving the selling amount")

	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func buildServeOptions() (serve.ServeOptions, error) {
	messengerType, err := message.ParseMessengerType(viper.GetString("messenger-type"))
	if err != nil {
		return serve.ServeOptions{}, err
	}
	messengerClient, err := message.GetClient(message.MessengerOptions{
		MessengerType:    messengerType,
		TwilioAccountSID: viper.GetString("twilio-account-sid"),
		TwilioAuthToken:  viper.GetString("twilio-auth-token"),
		TwilioServiceSID: viper.GetString("twilio-service-sid"),
	})
	if err != nil {
		return serve.ServeOptions{}, fmt.Errorf("creating messenger client: %w", err)
	}

	pricingRule, err := pricing.NewLinearRule(viper.GetString("pricing-multiplier"), viper.GetString("pricing-offset"))
	if err != nil {
		return serve.ServeOptions{}, fmt.Errorf("creating pricing rule: %w", err)
	}

	phoneVerifier := phoneotp.NewVerifier(phoneotp.NewClient(viper.GetString("phone-otp-url"), viper.GetString("phone-otp-api-key")))
	nationalIDVerifier := nationalid.NewVerifier(nationalid.NewClient(viper.GetString("national-id-url"), viper.GetString("national-id-api-key")))
	bankClient := bankverify.NewClient(viper.GetString("bank-verify-url"), viper.GetString("bank-verify-api-key"))

	sessionStore := session.NewStore(
		verification.NewCache(),
		[]verification.ChallengeVerifier{phoneVerifier, nationalIDVerifier},
		[]verification.OneShotVerifier{
			bankverify.NewAccountVerifier(bankClient),
			bankverify.NewUPIVerifier(bankClient),
		},
	)

	assembler := &submission.Assembler{
		Records:   records.NewClient(viper.GetString("records-url"), viper.GetString("records-api-key")),
		Uploads:   uploads.NewPipeline(assetstore.NewClient(viper.GetString("asset-store-url"), viper.GetString("asset-store-api-key"))),
		Messenger: messengerClient,
		Pricing:   pricingRule,
	}

	return serve.ServeOptions{
		Port:               viper.GetInt("port"),
		Version:            Version,
		CORSAllowedOrigins: viper.GetStringSlice("cors-allowed-origins"),
		SessionStore:       sessionStore,
		Assembler:          assembler,
		MonitorService:     monitor.NewMonitorService(),
	}, nil
}
