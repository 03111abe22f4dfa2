// Command einvoice validates, renders and submits e-invoices to the tax
// authority from invoice JSON payloads.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gulfbooks/einvoice/internal/config"
	"github.com/gulfbooks/einvoice/internal/database"
	"github.com/gulfbooks/einvoice/internal/fta"
	"github.com/gulfbooks/einvoice/internal/invoice"
	"github.com/gulfbooks/einvoice/internal/ubl"
)

var rootCmd = &cobra.Command{
	Use:           "einvoice",
	Short:         "Tax-authority e-invoicing toolkit",
	Long:          "Validate invoice payloads, render UBL documents and QR codes, and submit, track or cancel invoices with the tax authority.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadInvoice reads and decodes an invoice JSON payload from path.
func loadInvoice(path string) (*invoice.InvoiceData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading invoice file: %w", err)
	}
	var inv invoice.InvoiceData
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decoding invoice JSON: %w", err)
	}
	return &inv, nil
}

// printFindings writes validation findings to stderr, one line each.
func printFindings(errs []invoice.ValidationError) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "%s  %s: %s (%s)\n", e.Severity, e.Field, e.Message, e.Code)
	}
}

// newClient builds an authority client from full (credentialed) config.
func newClient() (*fta.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return fta.NewClient(cfg.FTA.ClientConfig()), nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadDev()
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Println("migrations applied successfully")
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <invoice.json>",
	Short: "Validate an invoice payload against the authority's business rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := loadInvoice(args[0])
		if err != nil {
			return err
		}

		findings := invoice.ValidateInvoiceData(inv)
		if len(findings) > 0 {
			printFindings(findings)
			return fmt.Errorf("%d validation finding(s)", len(findings))
		}
		fmt.Println("invoice is valid")
		return nil
	},
}

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <invoice.json>",
	Short: "Render an invoice as a UBL XML document and print its hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := loadInvoice(args[0])
		if err != nil {
			return err
		}

		doc, err := ubl.GenerateInvoiceXML(inv)
		if err != nil {
			var verrs invoice.ValidationErrors
			if errors.As(err, &verrs) {
				printFindings(verrs)
			}
			return err
		}

		if renderOut == "" {
			os.Stdout.Write(doc.XML)
		} else if err := os.WriteFile(renderOut, doc.XML, 0o644); err != nil {
			return fmt.Errorf("writing document: %w", err)
		}
		fmt.Fprintf(os.Stderr, "sha256: %s\n", doc.Hash)
		return nil
	},
}

var (
	qrOut  string
	qrSize int
)

var qrCmd = &cobra.Command{
	Use:   "qr <invoice.json>",
	Short: "Render the tax-invoice QR code as a PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := loadInvoice(args[0])
		if err != nil {
			return err
		}

		png, err := ubl.QRPNG(inv, qrSize)
		if err != nil {
			return err
		}
		if err := os.WriteFile(qrOut, png, 0o644); err != nil {
			return fmt.Errorf("writing QR image: %w", err)
		}
		fmt.Printf("wrote %s\n", qrOut)
		return nil
	},
}

var (
	submitValidateOnly bool
	submitClearance    bool
	submitNotify       bool
	submitLanguage     string
)

var submitCmd = &cobra.Command{
	Use:   "submit <invoice.json>",
	Short: "Serialize an invoice and submit it to the authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := loadInvoice(args[0])
		if err != nil {
			return err
		}

		doc, err := ubl.GenerateInvoiceXML(inv)
		if err != nil {
			var verrs invoice.ValidationErrors
			if errors.As(err, &verrs) {
				printFindings(verrs)
			}
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		result, err := client.SubmitInvoice(cmd.Context(), doc, fta.SubmitOptions{
			ValidateOnly:      submitValidateOnly,
			ClearanceRequired: submitClearance,
			NotifyCustomer:    submitNotify,
			Language:          submitLanguage,
		})
		if err != nil {
			return err
		}

		return printJSON(result)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <submission-id>",
	Short: "Fetch the processing status of a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		status, err := client.GetInvoiceStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel <submission-id>",
	Short: "Cancel a prior submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.CancelInvoice(cmd.Context(), args[0], cancelReason); err != nil {
			return err
		}
		fmt.Println("submission cancelled")
		return nil
	},
}

var checkTRNLive bool

var checkTRNCmd = &cobra.Command{
	Use:   "check-trn <trn>",
	Short: "Validate a TRN locally, optionally confirming registration with the authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := invoice.ValidateTRN(args[0])
		printFindings(result.Errors)
		if !result.Valid {
			return fmt.Errorf("TRN is not valid")
		}
		fmt.Printf("format ok: %s\n", invoice.FormatTRN(result.Value))

		if !checkTRNLive {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		pool, err := database.Connect(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		client := fta.NewClient(cfg.FTA.ClientConfig())
		registry := fta.NewTRNRegistry(client, pool, cfg.FTA.TRNCacheTTL, slog.Default())
		lookup, err := registry.Lookup(cmd.Context(), result.Value)
		if err != nil {
			return err
		}
		return printJSON(lookup)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "write the XML document to a file instead of stdout")

	qrCmd.Flags().StringVarP(&qrOut, "output", "o", "invoice-qr.png", "output PNG path")
	qrCmd.Flags().IntVar(&qrSize, "size", 256, "image edge size in pixels")

	submitCmd.Flags().BoolVar(&submitValidateOnly, "validate-only", false, "send to the validation endpoint without storing or clearing")
	submitCmd.Flags().BoolVar(&submitClearance, "clearance", false, "request synchronous clearance")
	submitCmd.Flags().BoolVar(&submitNotify, "notify-customer", false, "ask the authority to notify the buyer")
	submitCmd.Flags().StringVar(&submitLanguage, "language", "en", "language for authority messages (en or ar)")

	cancelCmd.Flags().StringVar(&cancelReason, "reason", "", "cancellation reason (required)")
	cancelCmd.MarkFlagRequired("reason")

	checkTRNCmd.Flags().BoolVar(&checkTRNLive, "live", false, "confirm registration against the authority (uses the cache)")

	rootCmd.AddCommand(migrateCmd, validateCmd, renderCmd, qrCmd, submitCmd, statusCmd, cancelCmd, checkTRNCmd)
}
