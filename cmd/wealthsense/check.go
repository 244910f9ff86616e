package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/internal/strutil"
	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/db"
	"github.com/hrygo/wealthsense/store/db/mongo"
)

const checkTimeout = 30 * time.Second

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test connectivity to the relational store, the document store and the language model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()
		return runChecks(ctx, cmd.OutOrStdout(), instanceProfile)
	},
}

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func runChecks(ctx context.Context, out io.Writer, p *profile.Profile) error {
	checks := []check{
		{"Relational store (" + p.Driver + ")", func(ctx context.Context) (string, error) { return checkRelational(ctx, p) }},
		{"Document store", func(ctx context.Context) (string, error) { return checkDocuments(ctx, p) }},
		{"Language model (" + p.LLMProvider + ")", func(ctx context.Context) (string, error) { return checkLanguageModel(ctx, p) }},
	}

	fmt.Fprintln(out, "Testing connections...")
	failed := 0
	for _, c := range checks {
		detail, err := c.run(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  FAIL  %s: %v\n", c.name, err)
			continue
		}
		fmt.Fprintf(out, "  OK    %s: %s\n", c.name, detail)
	}

	if failed > 0 {
		return errors.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Fprintln(out, "All connections working.")
	return nil
}

func checkRelational(ctx context.Context, p *profile.Profile) (string, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return "", err
	}
	defer driver.Close()

	tables, err := driver.DescribeSchema(ctx)
	if err != nil {
		return "", err
	}
	count, err := driver.CountTransactions(ctx, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d tables, %d transactions", len(tables), count), nil
}

func checkDocuments(ctx context.Context, p *profile.Profile) (string, error) {
	if p.MongoURI == "" {
		return "", store.ErrDocumentStoreUnavailable
	}
	documents, err := mongo.NewDB(ctx, p.MongoURI, p.MongoDatabase)
	if err != nil {
		return "", err
	}
	defer documents.Close(ctx)

	stats, err := documents.GetClientStats(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d clients in %s", stats.TotalClients, p.MongoDatabase), nil
}

func checkLanguageModel(ctx context.Context, p *profile.Profile) (string, error) {
	service := newLanguageModel(p)
	if service == nil {
		return "", errors.New("not configured")
	}
	reply, err := service.Complete(ctx, "Hello, respond with 'Connection successful'")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("model %s replied %q", p.LLMModel, strutil.Truncate(reply, 60)), nil
}
