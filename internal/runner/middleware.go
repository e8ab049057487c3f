package runner

import "context"

// FailureLogger logs failed requests. ctx is the worker context of the failed call.
type FailureLogger interface {
	LogFailure(ctx context.Context, err error)
}

// loggingRequester wraps a Requester with failure logging.
type loggingRequester struct {
	inner  Requester
	logger FailureLogger
}

// WithLogging wraps a Requester to log failures.
func WithLogging(req Requester, logger FailureLogger) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:  req,
		logger: logger,
	}
}

// Prepare forwards to the wrapped requester and keeps failure logging on the
// prepared request.
func (l *loggingRequester) Prepare(ctx context.Context) (Requester, error) {
	p, ok := l.inner.(Preparer)
	if !ok {
		return l, nil
	}
	req, err := p.Prepare(ctx)
	if err != nil {
		if l.logger != nil {
			l.logger.LogFailure(ctx, err)
		}
		return nil, err
	}
	return WithLogging(req, l.logger), nil
}

func (l *loggingRequester) Do(ctx context.Context) error {
	err := l.inner.Do(ctx)
	if err != nil && l.logger != nil {
		l.logger.LogFailure(ctx, err)
	}
	return err
}
