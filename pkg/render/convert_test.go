package render

import (
	"context"
	"testing"

	"github.com/matzehuels/famtree/pkg/errors"
)

func TestConvertWithoutTool(t *testing.T) {
	orig := converter
	converter = "famtree-no-such-converter"
	t.Cleanup(func() { converter = orig })

	if Available() {
		t.Fatal("Available() = true for a missing tool")
	}
	_, err := ToPDF(context.Background(), []byte("<svg/>"))
	if errors.GetCode(err) != errors.ErrCodeUnsupported {
		t.Errorf("ToPDF error code = %q, want UNSUPPORTED", errors.GetCode(err))
	}
	_, err = ToPNG(context.Background(), []byte("<svg/>"), 2)
	if errors.GetCode(err) != errors.ErrCodeUnsupported {
		t.Errorf("ToPNG error code = %q, want UNSUPPORTED", errors.GetCode(err))
	}
}
