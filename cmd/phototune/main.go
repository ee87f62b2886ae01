package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imamik/phototune"
	"github.com/imamik/phototune/internal/filters"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "phototune",
	Short: "Tune photos with color controls, vignette, sharpening and filters",
	Long: `Phototune applies a fixed-order adjustment chain to images:
rotation, brightness/contrast/saturation, vignette, sharpening,
a named photo filter and optional auto-enhancement.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(debug)
	},
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Tune a single image",
	Long: `Tune a single image. The preview session is rendered first at reduced
size, then the full-size original is exported.`,
	RunE: runTune,
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Render one thumbnail per photo filter",
	RunE:  runGallery,
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List photo filters and tune tools",
	Run:   runFilters,
}

var (
	inputPath  string
	outputPath string
	debug      bool
	thumbSize  int
	settings   = phototune.DefaultSettings()
	filterName string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Verbose text logging")

	f := tuneCmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "Input image file (required)")
	f.StringVarP(&outputPath, "output", "o", "", "Output image file (required)")
	f.Float64VarP(&settings.Brightness, "brightness", "b", 0, "Brightness offset, -1..1")
	f.Float64VarP(&settings.Contrast, "contrast", "c", 0, "Contrast offset, > -1")
	f.Float64VarP(&settings.Saturation, "saturation", "s", 0, "Saturation offset, -1 is grayscale")
	f.Float64Var(&settings.SharpnessIntensity, "sharpen", 0, "Sharpening intensity")
	f.Float64Var(&settings.SharpnessRadius, "sharpen-radius", settings.SharpnessRadius, "Sharpening radius in pixels")
	f.Float64Var(&settings.VignetteIntensity, "vignette", 0, "Vignette intensity, negative lightens")
	f.Float64Var(&settings.VignetteRadius, "vignette-radius", settings.VignetteRadius, "Vignette falloff start, fraction of the half diagonal")
	f.Float64VarP(&settings.Rotation, "rotate", "r", 0, "Rotation in radians, counter-clockwise")
	f.StringVarP(&filterName, "filter", "f", "", "Photo filter: "+filterNames())
	f.BoolVarP(&settings.AutoEnhance, "auto", "a", false, "Apply automatic enhancement")
	_ = tuneCmd.MarkFlagRequired("input")
	_ = tuneCmd.MarkFlagRequired("output")

	galleryCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input image file (required)")
	galleryCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output directory (required)")
	galleryCmd.Flags().IntVar(&thumbSize, "size", 320, "Thumbnail size of the longer side")
	_ = galleryCmd.MarkFlagRequired("input")
	_ = galleryCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(tuneCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(filtersCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func initLogger(debug bool) {
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.JSONFormatter{})
}

func filterNames() string {
	var names []string
	for _, d := range phototune.PhotoFilters() {
		names = append(names, string(d.ID))
	}
	return strings.Join(names, ", ")
}

// fileSink serves the original from disk.
type fileSink struct {
	path string
}

func (s *fileSink) Publish(img *image.NRGBA) {
	log.WithFields(logrus.Fields{
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Debug("preview published")
}

func (s *fileSink) FetchOriginal() (image.Image, error) {
	return imaging.Open(s.path, imaging.AutoOrientation(true))
}

func runTune(cmd *cobra.Command, args []string) error {
	if filterName != "" {
		if _, err := filters.Resolve(filters.ID(filterName)); err != nil {
			return fmt.Errorf("%w (valid: %s)", err, filterNames())
		}
		settings.Filter = filters.ID(filterName)
	}

	start := time.Now()
	fmt.Printf("Processing: %s\n", inputPath)

	sink := &fileSink{path: inputPath}
	src, err := sink.FetchOriginal()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	p := phototune.NewProcessor(phototune.DefaultOptions(), sink, log)
	defer p.Close()
	if err := p.SetSource(src); err != nil {
		return err
	}
	p.Update(settings)
	if _, err := p.Render(cmd.Context()); err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	out, err := p.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	if err := imaging.Save(out, outputPath, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	fmt.Printf("Done: %s (%dms)\n", outputPath, time.Since(start).Milliseconds())
	return nil
}

func runGallery(cmd *cobra.Command, args []string) error {
	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".png" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	written := 0
	for _, pv := range phototune.Previews(cmd.Context(), img, thumbSize) {
		if pv.Image == nil {
			fmt.Printf("%-10s FAILED\n", pv.ID)
			continue
		}
		out := filepath.Join(outputPath, fmt.Sprintf("%s_%s%s", base, pv.ID, ext))
		if err := imaging.Save(pv.Image, out); err != nil {
			fmt.Printf("%-10s FAILED: %v\n", pv.ID, err)
			continue
		}
		fmt.Printf("%-10s %s\n", pv.ID, out)
		written++
	}

	fmt.Printf("\nGallery complete: %d previews written\n", written)
	return nil
}

func runFilters(cmd *cobra.Command, args []string) {
	fmt.Println("Photo filters:")
	for _, d := range phototune.PhotoFilters() {
		fmt.Printf("  %-10s %s\n", d.ID, d.Title)
	}
	fmt.Println("\nTune tools:")
	for _, t := range phototune.TuneTools() {
		fmt.Printf("  %-10s %s\n", t.Title, t.Adjustment)
	}
}
