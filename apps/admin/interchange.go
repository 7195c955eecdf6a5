package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core/evaluation"
)

func (cli *commandLine) export(formatName, outDir string) error {
	ctx := context.Background()

	format, err := evaluation.ParseFormat(formatName)
	if err != nil {
		return err
	}
	exp, err := cli.evalSvc.Export(ctx, format)
	msg := evaluation.ExportMessage(exp, err)
	if err != nil {
		fmt.Fprintln(cli.out, msg.Text)
		if errors.Is(err, evaluation.ErrNothingToExport) {
			return nil
		}
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	path := filepath.Join(outDir, exp.Filename)
	if err := os.WriteFile(path, exp.Content, 0o644); err != nil {
		return errors.Wrap(err, "writing export file")
	}
	fmt.Fprintf(cli.out, "%s (%s)\n", msg.Text, path)
	return nil
}

func (cli *commandLine) importFile(path string) error {
	res, err := cli.evalSvc.ImportFile(context.Background(), path)
	fmt.Fprintln(cli.out, evaluation.ImportMessage(res, err).Text)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		fmt.Fprintf(cli.out, "%d invalid records skipped, %d records stored\n", res.Skipped, res.Total)
	}
	return nil
}

func (cli *commandLine) clear() error {
	if err := cli.evalSvc.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "All evaluation records deleted")
	return nil
}
