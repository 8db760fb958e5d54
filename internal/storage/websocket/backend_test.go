package websocket_test

import (
	"github.com/airace/carcontrol/internal/storage"
	"github.com/airace/carcontrol/internal/storage/websocket"
)

var _ storage.Backend = (*websocket.Backend)(nil)
