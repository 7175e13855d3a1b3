package llm

import (
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// ReportGPU logs whether hardware acceleration looks available on this host.
// It is purely informational: generation proceeds either way, the binding
// decides at load time how many layers actually land on the GPU.
func ReportGPU(log zerolog.Logger) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		log.Warn().Msg("no NVIDIA driver tooling found; model will run on CPU only")
		return
	}

	out, err := exec.Command(path, "--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		log.Warn().Err(err).Msg("nvidia-smi present but GPU query failed")
		return
	}

	name := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if name == "" {
		log.Warn().Msg("nvidia-smi reported no devices")
		return
	}
	log.Info().Str("gpu", name).Msg("GPU offload available")
}
