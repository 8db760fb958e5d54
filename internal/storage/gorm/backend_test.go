package gormstorage_test

import (
	"github.com/airace/carcontrol/internal/storage"
	gormstorage "github.com/airace/carcontrol/internal/storage/gorm"
)

var _ storage.Backend = (*gormstorage.Backend)(nil)
