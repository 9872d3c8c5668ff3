package handlers

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Overridable for tests.
var (
	cpuPercent    = cpu.Percent
	virtualMemory = mem.VirtualMemory
)

// GetSystemMetrics reports gateway host utilization. A failure to read one
// metric is reported inline rather than failing the whole response; the
// monitoring UI polls this endpoint and a partial answer beats none.
func GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	out := map[string]interface{}{"timestamp": time.Now().UTC()}

	if pcts, err := cpuPercent(0, false); err != nil {
		out["cpu_error"] = err.Error()
	} else if len(pcts) > 0 {
		out["cpu_percent"] = pcts[0]
	}

	if vm, err := virtualMemory(); err != nil {
		out["memory_error"] = err.Error()
	} else {
		out["memory_percent"] = vm.UsedPercent
	}

	writeJSON(w, http.StatusOK, out)
}
