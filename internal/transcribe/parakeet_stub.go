//go:build !(darwin && coreml)

package transcribe

import "fmt"

// newParakeetRunners requires the CoreML bridge, which is only available on
// darwin with the coreml build tag.
func newParakeetRunners(modelDir string) (encodeRunner, decoderRunner, jointRunner, func() error, error) {
	return nil, nil, nil, nil, fmt.Errorf("parakeet backend not compiled in (build with -tags coreml on darwin); model dir: %s", modelDir)
}
