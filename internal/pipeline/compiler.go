package pipeline

import (
	"errors"
	"fmt"

	"streamline/internal/config"
	"streamline/sink"
	"streamline/source/kafka"

	_ "streamline/sink/kafka"
	_ "streamline/sink/stdout"
)

// Compile builds a ready Runner from a pipeline file. The source is
// connected and subscribed on return; nothing is consumed until Run.
func Compile(path string) (*Runner, error) {
	cfg, confPath, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}
	if cfg.Source.Kind != "kafka" {
		return nil, fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
	kc, err := config.LoadKafkaConfig(confPath)
	if err != nil {
		return nil, err
	}

	r := NewRunner(cfg.ChannelCapacity)
	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return nil, errors.Join(err, r.Close())
		}
		node := cfg.SinkConfigs[name]
		if err := sDrv.Configure(&node); err != nil {
			return nil, errors.Join(fmt.Errorf("sink %s: %w", name, err), r.Close())
		}
		r.AddSink(sDrv)
	}

	src, err := kafka.New(cfg.Source.Driver, kc)
	if err != nil {
		return nil, errors.Join(err, r.Close())
	}
	r.SetSource(src)
	r.log.Info("pipeline compiled", "driver", cfg.Source.Driver, "topics", kc.Topics, "sinks", cfg.Sinks, "capacity", r.events.Cap())
	return r, nil
}
