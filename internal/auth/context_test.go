// ABOUTME: Unit tests for the request identity helpers
// ABOUTME: Tests round-tripping a user through context

package auth

import (
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	if u := FromContext(context.Background()); u != nil {
		t.Errorf("FromContext() on empty context = %+v, want nil", u)
	}

	ctx := WithUser(context.Background(), &User{ID: "user-1"})
	u := FromContext(ctx)
	if u == nil || u.ID != "user-1" {
		t.Errorf("FromContext() = %+v, want user-1", u)
	}
}
