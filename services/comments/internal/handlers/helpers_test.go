package handlers

import "go.uber.org/zap"

var nopLog = zap.NewNop()
