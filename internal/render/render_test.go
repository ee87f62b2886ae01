package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func createSolidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestContextLoad(t *testing.T) {
	c := NewContext(2)
	builds := 0
	build := func() (*image.NRGBA, error) {
		builds++
		return createSolidImage(2, 2, color.NRGBA{1, 2, 3, 255}), nil
	}

	a, err := c.Load("a", build)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	again, _ := c.Load("a", build)
	if a != again {
		t.Error("second Load() did not return the cached bitmap")
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses, want 1, 1", hits, misses)
	}
}

func TestContextEvictsOldest(t *testing.T) {
	c := NewContext(2)
	build := func() (*image.NRGBA, error) { return createSolidImage(1, 1, color.NRGBA{}), nil }
	for _, k := range []string{"a", "b", "c"} {
		if _, err := c.Load(k, build); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	builds := 0
	_, _ = c.Load("a", func() (*image.NRGBA, error) { builds++; return createSolidImage(1, 1, color.NRGBA{}), nil })
	if builds != 1 {
		t.Error("oldest entry was not evicted")
	}
}

func TestContextBuildError(t *testing.T) {
	c := NewContext(4)
	want := errors.New("boom")
	if _, err := c.Load("k", func() (*image.NRGBA, error) { return nil, want }); !errors.Is(err, want) {
		t.Errorf("Load() error = %v, want %v", err, want)
	}
	if c.Len() != 0 {
		t.Error("failed build was cached")
	}
}

func TestContextClearDuringBuild(t *testing.T) {
	c := NewContext(4)
	live := createSolidImage(3, 3, color.NRGBA{9, 9, 9, 255})
	got, err := c.Load("k", func() (*image.NRGBA, error) {
		c.Clear()
		return live, nil
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != live {
		t.Error("in-flight build lost its bitmap across Clear")
	}
	if c.Len() != 0 {
		t.Error("bitmap built across Clear was cached")
	}
	if live.NRGBAAt(1, 1).R != 9 {
		t.Error("Clear invalidated a live bitmap")
	}
}

func TestContextConcurrentClear(t *testing.T) {
	c := NewContext(8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = c.Load(string(rune('a'+i)), func() (*image.NRGBA, error) {
					return createSolidImage(2, 2, color.NRGBA{}), nil
				})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Clear()
			}
		}()
	}
	wg.Wait()
}

func TestMaterialize(t *testing.T) {
	src := createSolidImage(4, 4, color.NRGBA{10, 20, 30, 255})
	out, err := Materialize(src)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if out == src {
		t.Error("Materialize() returned its input")
	}
	if out.NRGBAAt(2, 2) != src.NRGBAAt(2, 2) {
		t.Error("Materialize() changed pixels")
	}

	if _, err := Materialize(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Materialize(nil) error = %v", err)
	}
	if _, err := Materialize(image.NewNRGBA(image.Rect(0, 0, 0, 5))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Materialize(empty) error = %v", err)
	}
}

func TestRecompress(t *testing.T) {
	src := createSolidImage(32, 32, color.NRGBA{128, 128, 128, 255})

	t.Run("disabled", func(t *testing.T) {
		out, err := Recompress(src, 0)
		if err != nil {
			t.Fatal(err)
		}
		if out.NRGBAAt(5, 5) != src.NRGBAAt(5, 5) {
			t.Error("Recompress(0) changed pixels")
		}
	})

	t.Run("jpeg", func(t *testing.T) {
		out, err := Recompress(src, 80)
		if err != nil {
			t.Fatal(err)
		}
		if out.Bounds() != src.Bounds() {
			t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
		}
		c := out.NRGBAAt(16, 16)
		for _, v := range []uint8{c.R, c.G, c.B} {
			if v < 126 || v > 130 {
				t.Errorf("recompressed gray = %v, want ~128", c)
				break
			}
		}
	})
}

func TestPoolDo(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	v, err := Do(context.Background(), p, func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("Do() = %d, %v, want 42, nil", v, err)
	}

	want := errors.New("failed")
	if _, err := Do(context.Background(), p, func() (int, error) { return 0, want }); !errors.Is(err, want) {
		t.Errorf("Do() error = %v, want %v", err, want)
	}
}

func TestPoolParallel(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		if err := p.Submit(context.Background(), func() {
			defer wg.Done()
			n.Add(1)
		}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	if n.Load() != 16 {
		t.Errorf("ran %d tasks, want 16", n.Load())
	}
}

func TestPoolClosed(t *testing.T) {
	p := NewPool(1)
	p.Close()
	if err := p.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrPoolClosed", err)
	}
	p.Close()
}

func TestPoolSubmitContext(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	block := make(chan struct{})
	if err := p.Submit(context.Background(), func() { <-block }); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func() {})
	close(block)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() error = %v, want DeadlineExceeded", err)
	}
}

func TestMainQueue(t *testing.T) {
	q := NewMainQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- q.Run(ctx) }()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		i := i
		q.Dispatch(func() { order = append(order, i) })
	}
	q.Dispatch(func() { close(done) })
	<-done

	if len(order) != 3 || order[0] != 0 || order[2] != 2 {
		t.Errorf("callbacks ran as %v, want [0 1 2]", order)
	}

	q.Close()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	q.Dispatch(func() { t.Error("callback ran after Close") })
}

func TestInline(t *testing.T) {
	ran := false
	Inline{}.Dispatch(func() { ran = true })
	if !ran {
		t.Error("Inline did not run the callback")
	}
}
