package illustration

import (
	"context"
	"log"
	"time"

	"storyweek/internal/models"
)

// FragmentStore is the slice of workbook storage the pipeline needs.
type FragmentStore interface {
	GetStoryFragments(ctx context.Context, childWorkbookID string) ([]models.StoryFragment, error)
	UpdateFragmentIllustration(ctx context.Context, childWorkbookID string, dayNumber int, status models.IllustrationStatus, imageURL string) error
}

// Pipeline fills in story fragment illustrations after a workbook is created.
// Each fragment is rendered independently so one failure never blocks the
// other six or the already-saved story text.
type Pipeline struct {
	renderer     Renderer
	store        FragmentStore
	renderWindow time.Duration
}

func NewPipeline(renderer Renderer, store FragmentStore, renderWindow time.Duration) *Pipeline {
	if renderWindow == 0 {
		renderWindow = 3 * time.Minute
	}
	return &Pipeline{renderer: renderer, store: store, renderWindow: renderWindow}
}

// Enrich starts illustration rendering for every unfinished fragment of the
// workbook and returns immediately. Callers must not wait on it: workbook
// creation succeeds whether or not any illustration does.
func (p *Pipeline) Enrich(childWorkbookID string) {
	if p.renderer == nil {
		log.Printf("illustration: no renderer configured, skipping workbook %s", childWorkbookID)
		return
	}
	go p.run(childWorkbookID)
}

func (p *Pipeline) run(childWorkbookID string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.renderWindow+30*time.Second)
	defer cancel()

	fragments, err := p.store.GetStoryFragments(ctx, childWorkbookID)
	if err != nil {
		log.Printf("illustration: load fragments for workbook %s: %v", childWorkbookID, err)
		return
	}

	done := make(chan struct{})
	launched := 0
	for _, fragment := range fragments {
		if fragment.IllustrationStatus == models.IllustrationComplete {
			continue
		}
		launched++
		go func(f models.StoryFragment) {
			defer func() { done <- struct{}{} }()
			p.renderFragment(childWorkbookID, f)
		}(fragment)
	}
	for i := 0; i < launched; i++ {
		<-done
	}
}

func (p *Pipeline) renderFragment(childWorkbookID string, fragment models.StoryFragment) {
	ctx, cancel := context.WithTimeout(context.Background(), p.renderWindow)
	defer cancel()

	if err := p.store.UpdateFragmentIllustration(ctx, childWorkbookID, fragment.DayNumber, models.IllustrationGenerating, ""); err != nil {
		log.Printf("illustration: mark fragment day %d generating (workbook %s): %v", fragment.DayNumber, childWorkbookID, err)
	}

	imageURL, err := p.renderer.Render(ctx, fragment.IllustrationPrompt)
	if err != nil {
		log.Printf("illustration: render fragment day %d (workbook %s): %v", fragment.DayNumber, childWorkbookID, err)
		p.markFailed(childWorkbookID, fragment.DayNumber)
		return
	}

	if err := p.store.UpdateFragmentIllustration(ctx, childWorkbookID, fragment.DayNumber, models.IllustrationComplete, imageURL); err != nil {
		log.Printf("illustration: save fragment day %d (workbook %s): %v", fragment.DayNumber, childWorkbookID, err)
	}
}

func (p *Pipeline) markFailed(childWorkbookID string, dayNumber int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.store.UpdateFragmentIllustration(ctx, childWorkbookID, dayNumber, models.IllustrationFailed, ""); err != nil {
		log.Printf("illustration: mark fragment day %d failed (workbook %s): %v", dayNumber, childWorkbookID, err)
	}
}
