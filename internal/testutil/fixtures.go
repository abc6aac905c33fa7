package testutil

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

// WriteScene saves the scene as <dir>/<name>.png together with a sidecar
// holding regions and chars. It returns the image path.
func WriteScene(t *testing.T, dir, name string, cfg SceneConfig, regions, chars []detection.Box) string {
	t.Helper()

	path, err := SaveScene(dir, name, cfg, regions, chars)
	require.NoError(t, err)
	return path
}

// SaveScene is WriteScene for callers without a *testing.T.
func SaveScene(dir, name string, cfg SceneConfig, regions, chars []detection.Box) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".png")
	img := GenerateScene(cfg)
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save scene %s: %w", path, err)
	}

	b := img.Bounds()
	sc := detection.Sidecar{Width: b.Dx(), Height: b.Dy(), Regions: regions, Chars: chars}
	if err := saveSidecar(path, sc); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSidecar writes sc next to imagePath using the default suffix.
func WriteSidecar(t *testing.T, imagePath string, sc detection.Sidecar) string {
	t.Helper()

	require.NoError(t, saveSidecar(imagePath, sc))
	return detection.SidecarPath(imagePath)
}

func saveSidecar(imagePath string, sc detection.Sidecar) error {
	data, err := detection.MarshalSidecar(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(detection.SidecarPath(imagePath), data, 0o600)
}

// PlateBox returns the CN region box matching cfg.Plate.
func PlateBox(cfg SceneConfig, confidence float64) detection.Box {
	return detection.Box{
		X1:         float64(cfg.Plate.Min.X),
		Y1:         float64(cfg.Plate.Min.Y),
		X2:         float64(cfg.Plate.Max.X),
		Y2:         float64(cfg.Plate.Max.Y),
		Confidence: confidence,
		Class:      detection.ClassCN,
	}
}

// CharBoxes returns one CHAR box per glyph of cfg.Text as GenerateScene
// draws it. Rotation is ignored.
func CharBoxes(cfg SceneConfig, confidence float64) []detection.Box {
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	height := face.Metrics().Height.Ceil()

	n := len([]rune(cfg.Text))
	out := make([]detection.Box, 0, n)
	for i := range n {
		var x, y int
		if cfg.Vertical {
			x = cfg.Plate.Min.X + (cfg.Plate.Dx()-face.Advance)/2
			y = cfg.Plate.Min.Y + 2 + i*height
		} else {
			x = cfg.Plate.Min.X + (cfg.Plate.Dx()-n*face.Advance)/2 + i*face.Advance
			y = cfg.Plate.Min.Y + (cfg.Plate.Dy()+ascent)/2 - ascent
		}
		out = append(out, detection.Box{
			X1:         float64(x),
			Y1:         float64(y),
			X2:         float64(x + face.Advance),
			Y2:         float64(y + height),
			Confidence: confidence,
			Class:      detection.ClassChar,
		})
	}
	return out
}

// CVATImage is one annotated image in a CVAT for images 1.1 export. Texts
// maps a box label (CN, CN_ABC, CN_NUM, TS, C_DIGIT) to its text attribute.
type CVATImage struct {
	Name    string
	Texts   map[string]string
	Rotated []string
}

type cvatDoc struct {
	XMLName xml.Name      `xml:"annotations"`
	Version string        `xml:"version"`
	Images  []cvatImageEl `xml:"image"`
}

type cvatImageEl struct {
	ID    int         `xml:"id,attr"`
	Name  string      `xml:"name,attr"`
	Boxes []cvatBoxEl `xml:"box"`
}

type cvatBoxEl struct {
	Label     string      `xml:"label,attr"`
	Rotation  string      `xml:"rotation,attr,omitempty"`
	Attribute *cvatAttrEl `xml:"attribute,omitempty"`
}

type cvatAttrEl struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

var cvatAttrNames = map[string]string{
	"CN":      "cn_text",
	"CN_ABC":  "cn_abc_text",
	"CN_NUM":  "cn_num_text",
	"TS":      "ts_text",
	"C_DIGIT": "c_digit_num",
}

// cvatLabelOrder keeps the generated XML deterministic.
var cvatLabelOrder = []string{"CN", "CN_ABC", "CN_NUM", "TS", "C_DIGIT"}

// CVATXML renders images as a CVAT annotations document.
func CVATXML(t *testing.T, images ...CVATImage) []byte {
	t.Helper()

	out, err := MarshalCVAT(images...)
	require.NoError(t, err)
	return out
}

// MarshalCVAT is CVATXML for callers without a *testing.T.
func MarshalCVAT(images ...CVATImage) ([]byte, error) {
	doc := cvatDoc{Version: "1.1"}
	for i, img := range images {
		el := cvatImageEl{ID: i, Name: img.Name}
		rotated := make(map[string]bool, len(img.Rotated))
		for _, l := range img.Rotated {
			rotated[l] = true
		}
		for _, label := range cvatLabelOrder {
			text, ok := img.Texts[label]
			if !ok && !rotated[label] {
				continue
			}
			box := cvatBoxEl{Label: label}
			if ok {
				box.Attribute = &cvatAttrEl{Name: cvatAttrNames[label], Value: text}
			}
			if rotated[label] {
				box.Rotation = "15.0"
			}
			el.Boxes = append(el.Boxes, box)
		}
		doc.Images = append(doc.Images, el)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// WriteCVAT writes CVATXML output to <dir>/annotations.xml.
func WriteCVAT(t *testing.T, dir string, images ...CVATImage) string {
	t.Helper()

	path := filepath.Join(dir, "annotations.xml")
	require.NoError(t, os.WriteFile(path, CVATXML(t, images...), 0o600))
	return path
}
