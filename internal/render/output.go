package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	// Canvas backends register their formats with draw on import.
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"
)

// Save draws fig onto a width x height inch canvas and writes it to path. The
// format follows the extension: pdf, svg and eps are vector; png, jpg and tif
// are raster.
func Save(fig Figure, path string, widthIn, heightIn float64) error {
	if widthIn <= 0 || heightIn <= 0 {
		return fmt.Errorf("save %s: size %vx%v in", path, widthIn, heightIn)
	}
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := draw.NewFormattedCanvas(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := fig.Draw(draw.New(c)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
