package cartstore

import (
	"context"
	"errors"
	"testing"
)

func TestFromContext(t *testing.T) {
	s := newTestStore(t, NewLocalBlobStore())

	got, err := FromContext(WithStore(context.Background(), s))
	if err != nil {
		t.Fatalf("FromContext() error = %v", err)
	}
	if got != s {
		t.Errorf("FromContext() = %p, want %p", got, s)
	}
}

func TestFromContextWithoutStore(t *testing.T) {
	if _, err := FromContext(context.Background()); !errors.Is(err, ErrNoStore) {
		t.Errorf("FromContext() error = %v, want ErrNoStore", err)
	}
	if _, err := FromContext(WithStore(context.Background(), nil)); !errors.Is(err, ErrNoStore) {
		t.Errorf("FromContext(nil store) error = %v, want ErrNoStore", err)
	}
}

func TestMustFromContextPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoStore) {
			t.Errorf("recovered %v, want ErrNoStore", r)
		}
	}()
	MustFromContext(context.Background())
	t.Error("MustFromContext did not panic")
}
