// Package llm is the inference boundary of scribe-gateway.
//
// Client offers two calls with identical output: Invoke returns the whole
// completion, Stream returns a channel of increments. LangChainClient backs the
// interface with any langchaingo model (normally an OpenAI-compatible proxy) and
// an optional token-bucket limiter. MockClient is a deterministic stand-in for
// development mode and tests.
//
// Every failure wraps ErrInference, including one that interrupts a stream:
//
//	for chunk := range ch {
//	    if chunk.Err != nil {
//	        // errors.Is(chunk.Err, llm.ErrInference) == true
//	    }
//	}
package llm
