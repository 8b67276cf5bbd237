package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/inkwell/internal/service/types"
)

// mockEmbedder 可编程的 Embedder
type mockEmbedder struct {
	calls   int
	failErr error
}

func (m *mockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	m.calls++
	if m.failErr != nil {
		return nil, m.failErr
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = []float64{float64(len(text)), float64(m.calls)}
	}
	return vectors, nil
}

func TestEmbedValidation(t *testing.T) {
	svc, err := NewService(&mockEmbedder{}, 10)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Embed(context.Background(), tt.text); !types.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestEmbedCacheHit(t *testing.T) {
	mock := &mockEmbedder{}
	svc, _ := NewService(mock, 10)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	second, err := svc.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if mock.calls != 1 {
		t.Errorf("expected 1 model call, got %d", mock.calls)
	}
	if first[1] != second[1] {
		t.Error("cached result should be identical")
	}
}

func TestEmbedWithoutCache(t *testing.T) {
	mock := &mockEmbedder{}
	svc, _ := NewService(mock, 10)
	ctx := context.Background()

	if _, err := svc.Embed(ctx, "text", WithoutCache()); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if _, err := svc.Embed(ctx, "text", WithoutCache()); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("expected 2 model calls without cache, got %d", mock.calls)
	}
}

func TestEmbedModelFailure(t *testing.T) {
	mock := &mockEmbedder{failErr: errors.New("model down")}
	svc, _ := NewService(mock, 10)

	_, err := svc.Embed(context.Background(), "text")
	if !types.IsExternal(err) {
		t.Errorf("expected external error, got %v", err)
	}
}

func TestEmbedBatchChunking(t *testing.T) {
	tests := []struct {
		name      string
		texts     int
		batchSize int
		wantCalls int
	}{
		{"single batch", 3, 10, 1},
		{"exact chunks", 6, 3, 2},
		{"remainder chunk", 7, 3, 3},
		{"zero batch size means one call", 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockEmbedder{}
			svc, _ := NewService(mock, 10)

			texts := make([]string, tt.texts)
			for i := range texts {
				texts[i] = fmt.Sprintf("text-%d", i)
			}

			vectors, err := svc.EmbedBatch(context.Background(), texts, tt.batchSize)
			if err != nil {
				t.Fatalf("EmbedBatch failed: %v", err)
			}
			if len(vectors) != tt.texts {
				t.Errorf("expected %d vectors, got %d", tt.texts, len(vectors))
			}
			if mock.calls != tt.wantCalls {
				t.Errorf("expected %d model calls, got %d", tt.wantCalls, mock.calls)
			}
		})
	}
}

func TestEmbedBatchValidation(t *testing.T) {
	svc, _ := NewService(&mockEmbedder{}, 10)
	ctx := context.Background()

	if _, err := svc.EmbedBatch(ctx, nil, 10); !types.IsValidation(err) {
		t.Errorf("expected validation error for empty list, got %v", err)
	}
	if _, err := svc.EmbedBatch(ctx, []string{"ok", " "}, 10); !types.IsValidation(err) {
		t.Errorf("expected validation error for blank element, got %v", err)
	}
}

func TestNewServiceRequiresEmbedder(t *testing.T) {
	if _, err := NewService(nil, 10); err == nil {
		t.Error("expected error for nil embedder")
	}
}
