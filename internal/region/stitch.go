package region

import (
	"errors"
	"image"

	"github.com/MeKo-Tech/cnread/internal/utils"
)

// ErrOrientationMismatch is reported when the owner code and the numeric
// field run in different directions.
var ErrOrientationMismatch = errors.New("orientation mismatch")

// Stitch combines the owner-code crop and the numeric-field crop into one
// image. Orientation is taken from each crop's box: two horizontal boxes are
// joined left to right after padding the shorter one at the bottom, two
// vertical boxes top to bottom after padding the narrower one on the right.
func Stitch(imgABC, imgNUM image.Image, boxABC, boxNUM utils.Box) (*image.NRGBA, utils.Orientation, error) {
	abcHorizontal := boxABC.IsHorizontal()
	numHorizontal := boxNUM.IsHorizontal()

	switch {
	case abcHorizontal && numHorizontal:
		h := max(imgABC.Bounds().Dy(), imgNUM.Bounds().Dy())
		left, err := utils.PadBottom(imgABC, h)
		if err != nil {
			return nil, 0, err
		}
		right, err := utils.PadBottom(imgNUM, h)
		if err != nil {
			return nil, 0, err
		}
		out, err := utils.ConcatHorizontal(left, right)
		return out, utils.Horizontal, err

	case !abcHorizontal && !numHorizontal:
		w := max(imgABC.Bounds().Dx(), imgNUM.Bounds().Dx())
		top, err := utils.PadRight(imgABC, w)
		if err != nil {
			return nil, 0, err
		}
		bottom, err := utils.PadRight(imgNUM, w)
		if err != nil {
			return nil, 0, err
		}
		out, err := utils.ConcatVertical(top, bottom)
		return out, utils.Vertical, err

	default:
		return nil, 0, ErrOrientationMismatch
	}
}
