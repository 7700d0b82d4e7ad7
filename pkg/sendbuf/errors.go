package sendbuf

import "github.com/c360/semring/errors"

// ErrBufferFull indicates every frame slot is in use.
var ErrBufferFull = errors.New("send buffer full")
