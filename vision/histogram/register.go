// MODUL: histogram/register
// ZWECK: Registriert den Histogramm-Encoder in der globalen Registry
// NEBENEFFEKTE: Registriert "histogram" Factory bei Package-Import
// HINWEISE: Import mit _ "github.com/7blacky7/imagematch/vision/histogram"

package histogram

import (
	"github.com/7blacky7/imagematch/vision"
)

func init() {
	vision.DefaultRegistry.Register("histogram", factory)
}

func factory(spec vision.ModelSpec, _ string, _ vision.LoadOptions) (vision.VisionEncoder, error) {
	return New(spec), nil
}
