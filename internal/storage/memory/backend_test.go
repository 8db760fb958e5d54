package memory_test

import (
	"github.com/airace/carcontrol/internal/storage"
	"github.com/airace/carcontrol/internal/storage/memory"
)

var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
)
