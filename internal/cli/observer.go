package cli

import (
	"github.com/sirupsen/logrus"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
)

// logObserver reports encoder events through logrus.
type logObserver struct {
	log *logrus.Entry
}

func (o logObserver) OnRecord(tag datastream.Tag, size int) {
	o.log.WithFields(logrus.Fields{"tag": tag.String(), "bytes": size}).Trace("record written")
}

func (o logObserver) OnFallback(tag datastream.Tag, err error) {
	o.log.WithField("tag", tag.String()).WithError(err).Warn("payload replaced by fallback")
}
