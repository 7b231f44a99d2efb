package events

import "go.uber.org/zap"

// ZapListener logs every event as a structured record. Cache events are
// logged at debug level to keep hot-path logging cheap.
type ZapListener struct {
	logger *zap.Logger
}

// NewZapListener creates a listener writing through the given logger.
func NewZapListener(logger *zap.Logger) *ZapListener {
	return &ZapListener{logger: logger}
}

func (z *ZapListener) OnEvent(ev Event) {
	switch e := ev.(type) {
	case ObjectCreated:
		z.logger.Info("object created",
			zap.String("object_type", e.TypeAPIName),
			zap.String("pk", e.PrimaryKey))
	case ObjectUpdated:
		z.logger.Info("object updated",
			zap.String("object_type", e.TypeAPIName),
			zap.String("pk", e.PrimaryKey),
			zap.Strings("properties", e.Properties))
	case ObjectDeleted:
		z.logger.Info("object deleted",
			zap.String("object_type", e.TypeAPIName),
			zap.String("pk", e.PrimaryKey))
	case LinkCreated:
		z.logger.Info("link created",
			zap.String("link_type", e.LinkTypeAPIName),
			zap.String("source_pk", e.SourcePK),
			zap.String("target_pk", e.TargetPK))
	case LinkDeleted:
		z.logger.Info("link deleted",
			zap.String("link_type", e.LinkTypeAPIName),
			zap.String("source_pk", e.SourcePK),
			zap.String("target_pk", e.TargetPK))
	case QueryMaterialized:
		z.logger.Debug("query materialized",
			zap.String("object_type", e.TypeAPIName),
			zap.Bool("index_used", e.IndexUsed),
			zap.Int("results", e.ResultCount))
	case CacheHit:
		z.logger.Debug("cache hit",
			zap.String("key", e.Key),
			zap.Int("tier", e.Tier))
	case CacheMiss:
		z.logger.Debug("cache miss", zap.String("key", e.Key))
	default:
		z.logger.Debug("event", zap.String("name", ev.EventName()))
	}
}
