package influxstorage_test

import (
	"github.com/airace/carcontrol/internal/storage"
	influxstorage "github.com/airace/carcontrol/internal/storage/influx"
)

var _ storage.Backend = (*influxstorage.Backend)(nil)
