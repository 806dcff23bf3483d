package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ledax/mapa-unidades/internal/etl"
	"github.com/ledax/mapa-unidades/pkg/geocode"
)

var (
	etlInput      string
	etlSheet      string
	etlNoProgress bool
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Ingest the unit spreadsheet and geocode every row",
	Long:  "Performs a full refresh: the destination table is dropped and rebuilt from the input file. The geocode cache persists across runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input := etlInput
		if input == "" {
			input = cfg.ETL.InputPath
		}
		sheet := etlSheet
		if sheet == "" {
			sheet = cfg.ETL.SheetName
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cache := geocode.NewCache(cfg.Geocode.CachePath)

		cepOpts := []geocode.CEPOption{}
		if cfg.Geocode.CEPBaseURL != "" {
			cepOpts = append(cepOpts, geocode.WithCEPBaseURL(cfg.Geocode.CEPBaseURL))
		}

		fuzzyOpts := []geocode.NominatimOption{
			geocode.WithNominatimUserAgent(cfg.Geocode.UserAgent),
			geocode.WithNominatimMinDelay(cfg.Geocode.MinDelay),
		}
		if cfg.Geocode.SearchURL != "" {
			fuzzyOpts = append(fuzzyOpts, geocode.WithNominatimBaseURL(cfg.Geocode.SearchURL))
		}

		resolverOpts := []geocode.ResolverOption{}
		if cfg.Geocode.DefaultState != "" {
			resolverOpts = append(resolverOpts, geocode.WithDefaultState(cfg.Geocode.DefaultState))
		}

		resolver := geocode.NewResolver(cache,
			geocode.NewCEPProvider(cepOpts...),
			geocode.NewNominatimProvider(fuzzyOpts...),
			resolverOpts...,
		)

		processor := etl.New(st, resolver, cache,
			etl.WithCommitEvery(cfg.ETL.CommitEvery),
			etl.WithCacheFlushEvery(cfg.ETL.CacheFlushEvery),
			etl.WithProgress(!etlNoProgress),
			etl.WithSheetName(sheet),
		)

		if err := processor.Run(ctx, input); err != nil {
			return err
		}

		zap.L().Info("etl run finished", zap.String("input", input))
		return nil
	},
}

func init() {
	etlCmd.Flags().StringVar(&etlInput, "input", "", "input file (.xlsx or .csv; default from config)")
	etlCmd.Flags().StringVar(&etlSheet, "sheet", "", "worksheet name for XLSX input (default: first sheet)")
	etlCmd.Flags().BoolVar(&etlNoProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(etlCmd)
}
