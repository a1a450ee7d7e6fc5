package gomart

import "go.uber.org/zap"

type Config struct {
	Catalog Catalog     // optional, defaults to in-memory
	Logger  *zap.Logger // optional, defaults to no-op
	Metrics *Metrics    // optional
}
