package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"portfolio/api/internal/app"
	"portfolio/api/internal/auth"
	"portfolio/api/internal/config"
	"portfolio/api/internal/export"
	"portfolio/api/internal/kv"
	"portfolio/api/internal/portfolio"
)

var (
	seedForce    bool
	exportFormat string
	exportOutput string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the default document to the store",
	Long: `Write the default document (PORTFOLIO_DEFAULTS_PATH or the built-in one) to the
store. An existing document is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the stored document as JSON",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored document as a resume",
	Example: `  portfolioctl export --format pdf --output resume.pdf
  portfolioctl export --format html`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read a password from stdin and print its bcrypt hash",
	Args:  cobra.NoArgs,
	RunE:  runHashPassword,
}

func init() {
	rootCmd.AddCommand(seedCmd, dumpCmd, exportCmd, hashPasswordCmd)
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Overwrite an existing document")
	exportCmd.Flags().StringVar(&exportFormat, "format", "pdf", "Output format: html, pdf or docx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default derived from the document)")
}

// newService builds a content service backed by the configured store.
func newService() (*app.Service, func(), error) {
	cfg := config.Load()
	defaults, err := portfolio.LoadDefault(cfg.DefaultsPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load default document")
	}
	docs, err := kv.NewRedisStore(cfg.KVURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create kv client")
	}
	if !docs.Configured() {
		return nil, nil, errors.New("KV is not configured (missing env vars)")
	}
	cleanup := func() { _ = docs.Close() }
	return app.New(cfg, defaults, app.Dependencies{Documents: docs}), cleanup, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func runSeed(cmd *cobra.Command, _ []string) (err error) {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := commandContext()
	defer cancel()

	written, err := svc.Seed(ctx, seedForce)
	if err != nil {
		return errors.Wrap(err, "seed document")
	}
	if written {
		fmt.Fprintln(cmd.OutOrStdout(), "default document written")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "document already present, use --force to overwrite")
	}
	return nil
}

func runDump(cmd *cobra.Command, _ []string) (err error) {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := commandContext()
	defer cancel()

	doc, err := svc.GetContent(ctx)
	if err != nil {
		return errors.Wrap(err, "read document")
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "encode document")
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(exportFormat)))
	if err != nil {
		return errors.Wrapf(err, "format %q", exportFormat)
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := commandContext()
	defer cancel()

	result, err := svc.ExportResume(ctx, format)
	if err != nil {
		return errors.Wrap(err, "export resume")
	}

	output := exportOutput
	if output == "" {
		output = result.Filename
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", output)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(result.Data))
	return nil
}

func runHashPassword(cmd *cobra.Command, _ []string) (err error) {
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is empty")
	}
	return password, nil
}
