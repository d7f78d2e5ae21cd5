package kafka

import "errors"

var ErrClosed = errors.New("kafka producer closed")
