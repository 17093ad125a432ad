package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/mpcautofill/go-autofill/cardname"
	"github.com/mpcautofill/go-autofill/decksites"
	"github.com/mpcautofill/go-autofill/order"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var stockFlag string
	var foilFlag bool
	var combineFlag bool
	var downloadOnly bool

	rootCmd := &cobra.Command{
		Use:           "autofill [inputs...]",
		Short:         "Parse card lists, batch them into print projects, and fetch their images",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			if stockFlag != "" {
				cfg.Project.Stock = stockFlag
			}
			if cmd.Flags().Changed("foil") {
				cfg.Project.Foil = foilFlag
			}
			return run(cmd.Context(), cfg, args, combineFlag, downloadOnly)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&stockFlag, "stock", "", "Cardstock for inputs that do not carry one")
	rootCmd.Flags().BoolVar(&foilFlag, "foil", false, "Foil finish for inputs that do not carry one")
	rootCmd.Flags().BoolVar(&combineFlag, "combine", true, "Merge orders sharing a finish before splitting")
	rootCmd.Flags().BoolVar(&downloadOnly, "download-only", false, "Stop after downloading images")

	return rootCmd
}

func run(ctx context.Context, cfg config, inputs []string, combine, downloadOnly bool) error {
	transforms := cardname.NewTransformTable()
	if cfg.Cards.Transforms != "" {
		var err error
		transforms, err = cardname.LoadTransformTableFile(cfg.Cards.Transforms)
		if err != nil {
			return fmt.Errorf("loading transforms: %w", err)
		}
		log.Printf("Loaded %d card transforms", transforms.Len())
	}

	var orders []*order.CardOrder
	for _, input := range inputs {
		built, err := parseInput(input, cfg, transforms)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		orders = append(orders, built)
	}

	orders, err := order.AggregateAndSplit(orders, combine)
	if err != nil {
		return err
	}
	log.Printf("Batched input into %d project(s)", len(orders))

	dl, err := newDownloadConfig(ctx, cfg)
	if err != nil {
		return err
	}

	var failures []order.CardImage
	for _, cardOrder := range orders {
		cardOrder.ResolveFilePaths(cfg.Download.CacheDir)

		frontGaps, backGaps, err := cardOrder.Validate()
		if err != nil {
			return err
		}
		if len(frontGaps) > 0 {
			log.Printf("%s: no front image for slots %v", cardOrder.Name, frontGaps)
		}
		if len(backGaps) > 0 {
			log.Printf("%s: no back image for slots %v", cardOrder.Name, backGaps)
		}

		failures = append(failures, downloadOrder(ctx, cardOrder, dl)...)

		outPath := filepath.Join(cfg.OutDir, slugify(cardOrder.Name)+".xml")
		err = writeOrderXML(cardOrder, outPath)
		if err != nil {
			return err
		}
		log.Printf("Wrote %s (%d cards, bracket %d)", outPath,
			cardOrder.Details.Quantity, order.BracketFor(cardOrder.Details.Quantity))
	}

	renderFailures(failures)

	if downloadOnly {
		return nil
	}

	// Placing the images on the print site needs a concrete SiteDriver;
	// the exported XML feeds whichever driver the operator runs next.
	log.Printf("Projects are ready for fulfillment under %s", cfg.OutDir)
	return nil
}

func parseInput(input string, cfg config, transforms *cardname.TransformTable) (*order.CardOrder, error) {
	builder := order.NewBuilder(transforms)
	builder.MaxProjectSize = cfg.Project.MaxSize
	builder.Retrievers = decksites.Default()
	builder.LogCallback = log.Printf
	if cfg.Cards.Cardback != "" {
		builder.Cardback.ID = cfg.Cards.Cardback
	}

	var err error
	switch {
	case strings.HasPrefix(input, "http"):
		_, err = builder.FromLink(input, 0)
	case strings.EqualFold(filepath.Ext(input), ".xml"):
		var data []byte
		data, err = os.ReadFile(input)
		if err == nil {
			_, err = builder.FromXML(data, 0)
		}
	case strings.EqualFold(filepath.Ext(input), ".csv"):
		var data []byte
		data, err = os.ReadFile(input)
		if err == nil {
			_, err = builder.FromCSV(data)
		}
	default:
		var data []byte
		data, err = os.ReadFile(input)
		if err == nil {
			_, err = builder.FromText(string(data), 0)
		}
	}
	if err != nil {
		return nil, err
	}

	details := order.Details{
		Stock:          cardstockOrDefault(cfg.Project.Stock),
		Foil:           cfg.Project.Foil,
		MaxProjectSize: cfg.Project.MaxSize,
	}
	if builder.Details != nil {
		details.Stock = builder.Details.Stock
		details.Foil = builder.Details.Foil
	}

	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return builder.Build(name, details)
}

func cardstockOrDefault(name string) order.Cardstock {
	stock, found := order.CardstockByName(name)
	if !found {
		return order.StockSmooth
	}
	return stock
}

func newDownloadConfig(ctx context.Context, cfg config) (*order.DownloadConfig, error) {
	dl := &order.DownloadConfig{
		Concurrency: cfg.Download.Concurrency,
		LogCallback: log.Printf,
	}

	if cfg.Download.MaxDPI > 0 {
		dl.PostProcess = &order.PostProcessConfig{
			MaxDPI: cfg.Download.MaxDPI,
			Kernel: cfg.Download.Kernel,
		}
	}

	if cfg.Download.Bucket != "" {
		var opts []option.ClientOption
		if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		dl.Bucket = client.Bucket(cfg.Download.Bucket)

		if cfg.Download.MetadataRate > 0 {
			dl.Limiter = rate.NewLimiter(rate.Limit(cfg.Download.MetadataRate), 1)
		}
	}

	return dl, nil
}

func downloadOrder(ctx context.Context, cardOrder *order.CardOrder, dl *order.DownloadConfig) []order.CardImage {
	var failures []order.CardImage

	for _, coll := range []*order.CardImageCollection{cardOrder.Fronts, cardOrder.Backs} {
		if len(coll.Images) == 0 {
			continue
		}

		bar := progressbar.Default(int64(len(coll.Images)),
			fmt.Sprintf("%s %ss", cardOrder.Name, coll.Face))
		dl.Progress = func(card *order.CardImage) {
			bar.Add(1)
		}

		for card := range coll.DownloadImages(ctx, dl) {
			if card.Errored {
				failures = append(failures, *card)
			}
		}
	}

	dl.Progress = nil
	return failures
}

func renderFailures(failures []order.CardImage) {
	if len(failures) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Image", "Slots", "Link"})
	for _, card := range failures {
		name := card.Name
		if name == "" {
			name = card.Identifier()
		}
		t.AppendRow(table.Row{name, fmt.Sprint(card.Slots), card.DirectLink()})
	}
	t.Render()

	log.Printf("%d image(s) need manual fixing", len(failures))
}

func writeOrderXML(cardOrder *order.CardOrder, path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return cardOrder.WriteXML(file)
}

func slugify(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, name)
}
