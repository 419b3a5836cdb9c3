package stop

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "stop")
