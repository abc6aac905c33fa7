package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/logging"
	"github.com/MeKo-Tech/cnread/internal/testutil"
)

// sampleCodes all carry a correct check digit.
var sampleCodes = []string{"TTNU8655846", "MSCU1234566", "CSQU3054383"}

func main() {
	var (
		outDir         = flag.String("out", "testdata", "Output directory, relative to the project root")
		genScenes      = flag.Bool("scenes", true, "Generate synthetic container scenes with detection sidecars")
		genAnnotations = flag.Bool("annotations", true, "Generate a CVAT annotation file")
		verbose        = flag.Bool("v", false, "Verbose output")
		help           = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate test data for cnread.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                     # Generate everything\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -annotations=false  # Scenes only\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	logger, _, err := logging.New(logging.Options{Format: "text", Verbose: *verbose})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	dir := *outDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	slog.Debug("Output directory", "path", dir)

	if *genScenes {
		n, err := generateScenes(filepath.Join(dir, "scenes"))
		if err != nil {
			slog.Error("Failed to generate scenes", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated scenes", "count", n)
	}

	if *genAnnotations {
		path, err := generateAnnotations(filepath.Join(dir, "annotations"))
		if err != nil {
			slog.Error("Failed to generate annotations", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated annotations", "path", path)
	}
}

// generateScenes writes one scene per sample code and layout: a single CN
// plate, a vertical plate with character boxes, an owner/number split and
// a photo without any detections.
func generateScenes(dir string) (int, error) {
	count := 0
	for _, code := range sampleCodes {
		cfg := testutil.DefaultSceneConfig()
		cfg.Text = code
		regions := []detection.Box{testutil.PlateBox(cfg, 0.95)}
		if _, err := testutil.SaveScene(filepath.Join(dir, "horizontal"), code, cfg, regions, nil); err != nil {
			return count, err
		}
		count++

		vcfg := testutil.DefaultSceneConfig()
		vcfg.Text = code
		vcfg.Vertical = true
		vcfg.Width, vcfg.Height = 240, 320
		vcfg.Plate = image.Rect(100, 60, 130, 210)
		vregions := []detection.Box{testutil.PlateBox(vcfg, 0.9)}
		chars := testutil.CharBoxes(vcfg, 0.85)
		if _, err := testutil.SaveScene(filepath.Join(dir, "vertical"), code, vcfg, vregions, chars); err != nil {
			return count, err
		}
		count++

		glyphs := testutil.CharBoxes(cfg, 0.9)
		split := []detection.Box{
			union(glyphs[:4], detection.ClassCNABC, 0.88),
			union(glyphs[4:], detection.ClassCNNUM, 0.91),
		}
		if _, err := testutil.SaveScene(filepath.Join(dir, "split"), code, cfg, split, nil); err != nil {
			return count, err
		}
		count++
	}

	empty := testutil.DefaultSceneConfig()
	empty.Text = ""
	if _, err := testutil.SaveScene(filepath.Join(dir, "empty"), "no_code", empty, nil, nil); err != nil {
		return count, err
	}
	return count + 1, nil
}

// union returns the box covering boxes, padded by two pixels.
func union(boxes []detection.Box, class detection.Class, confidence float64) detection.Box {
	out := boxes[0]
	for _, b := range boxes[1:] {
		out.X1 = min(out.X1, b.X1)
		out.Y1 = min(out.Y1, b.Y1)
		out.X2 = max(out.X2, b.X2)
		out.Y2 = max(out.Y2, b.Y2)
	}
	out.X1 -= 2
	out.Y1 -= 2
	out.X2 += 2
	out.Y2 += 2
	out.Class = class
	out.Confidence = confidence
	return out
}

// generateAnnotations writes a CVAT export covering the generated scenes
// plus records with typical labelling mistakes.
func generateAnnotations(dir string) (string, error) {
	images := make([]testutil.CVATImage, 0, len(sampleCodes)+3)
	for _, code := range sampleCodes {
		images = append(images, testutil.CVATImage{
			Name: "horizontal/" + code + ".png",
			Texts: map[string]string{
				"CN":      code,
				"CN_ABC":  code[:4],
				"CN_NUM":  code[4:],
				"C_DIGIT": code[10:],
			},
		})
	}
	images = append(images,
		testutil.CVATImage{Name: "mistakes/checksum.png", Texts: map[string]string{"CN": "CSQU3054389"}},
		testutil.CVATImage{Name: "mistakes/owner.png", Texts: map[string]string{"CN": "TTNU8655846", "CN_ABC": "TTMU"}},
		testutil.CVATImage{Name: "mistakes/rotated.png", Texts: map[string]string{"CN": "MSCU1234566"}, Rotated: []string{"CN"}},
	)

	data, err := testutil.MarshalCVAT(images...)
	if err != nil {
		return "", err
	}
	if err := testutil.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create annotations directory: %w", err)
	}
	path := filepath.Join(dir, "annotations.xml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
