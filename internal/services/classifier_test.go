package services

import (
	"context"
	"testing"
)

func TestSentimentSign(t *testing.T) {
	h := NewHeuristicClassifier()
	ctx := context.Background()

	pos, err := h.Sentiment(ctx, "I am so happy and proud, a great day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos <= 0 {
		t.Fatalf("positive text scored %v", pos)
	}

	neg, _ := h.Sentiment(ctx, "failed the exam, so sad and angry")
	if neg >= 0 {
		t.Fatalf("negative text scored %v", neg)
	}

	neutral, _ := h.Sentiment(ctx, "walked to the shop")
	if neutral != 0 {
		t.Fatalf("neutral text scored %v", neutral)
	}

	if pos > 1 || neg < -1 {
		t.Fatalf("sentiment out of [-1, 1]: %v, %v", pos, neg)
	}
}

func TestClassifyLinksAreas(t *testing.T) {
	h := NewHeuristicClassifier()
	links, err := h.Classify(context.Background(), "went for a run, then a meeting at work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := make(map[string]bool)
	for _, l := range links {
		found[l.AreaID+"/"+l.DimensionID] = true
		if l.Confidence <= 0 || l.Confidence > 1 {
			t.Errorf("confidence out of range: %v", l.Confidence)
		}
		if l.Signal < 0 || l.Signal > 5 {
			t.Errorf("signal out of range: %v", l.Signal)
		}
	}
	if !found["health/exercise"] {
		t.Error("expected a health/exercise link for a run")
	}
	if !found["career/work"] {
		t.Error("expected a career/work link for a meeting at work")
	}
}

func TestClassifyDedupesPairs(t *testing.T) {
	h := NewHeuristicClassifier()
	// "run", "gym" and "workout" all map to health/exercise.
	links, _ := h.Classify(context.Background(), "run then gym then workout")
	if len(links) != 1 {
		t.Fatalf("expected single deduped link, got %d", len(links))
	}
}

func TestDetectCommitments(t *testing.T) {
	h := NewHeuristicClassifier()
	ctx := context.Background()

	conf, statements, err := h.DetectCommitments(ctx, "I promise I will run every morning. Starting tomorrow I'll sleep by ten.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statements) != 2 {
		t.Fatalf("found %d statements, want 2: %v", len(statements), statements)
	}
	if conf < 0.75 {
		t.Fatalf("explicit double promise scored %v, want >= 0.75", conf)
	}
	if conf > 1 {
		t.Fatalf("confidence %v exceeds 1", conf)
	}

	conf, statements, _ = h.DetectCommitments(ctx, "I want to start reading more")
	if len(statements) != 1 {
		t.Fatalf("found %d statements, want 1", len(statements))
	}
	if conf >= 0.75 {
		t.Fatalf("vague intent scored %v, should stay below the auto-spawn bar", conf)
	}

	conf, statements, _ = h.DetectCommitments(ctx, "had lunch with a friend")
	if conf != 0 || len(statements) != 0 {
		t.Fatalf("plain narration detected as commitment: conf=%v statements=%v", conf, statements)
	}
}

func TestDetectAmounts(t *testing.T) {
	h := NewHeuristicClassifier()
	txns, err := h.DetectAmounts(context.Background(), "spent $42.50 on groceries and €12 on coffee, plus 30 GBP for the book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("found %d amounts, want 3: %+v", len(txns), txns)
	}

	byCurrency := make(map[string]float64)
	for _, tx := range txns {
		byCurrency[tx.Currency] = tx.Amount
	}
	if byCurrency["USD"] != 42.50 {
		t.Errorf("USD amount = %v, want 42.50", byCurrency["USD"])
	}
	if byCurrency["EUR"] != 12 {
		t.Errorf("EUR amount = %v, want 12", byCurrency["EUR"])
	}
	if byCurrency["GBP"] != 30 {
		t.Errorf("GBP amount = %v, want 30", byCurrency["GBP"])
	}
}

func TestDetectAmountsNoMoney(t *testing.T) {
	h := NewHeuristicClassifier()
	txns, _ := h.DetectAmounts(context.Background(), "ran 5 miles in 40 minutes")
	if len(txns) != 0 {
		t.Fatalf("bare numbers misread as money: %+v", txns)
	}
}

func TestCoherence(t *testing.T) {
	h := NewHeuristicClassifier()
	ctx := context.Background()

	same, _ := h.Coherence(ctx, []string{
		"marathon training went well today",
		"marathon training went well again",
	})
	different, _ := h.Coherence(ctx, []string{
		"marathon training went well today",
		"filed quarterly taxes with the accountant",
	})
	if same <= different {
		t.Fatalf("similar entries (%v) should cohere more than unrelated ones (%v)", same, different)
	}
	if single, _ := h.Coherence(ctx, []string{"just one entry"}); single != 1 {
		t.Fatalf("single entry coherence = %v, want 1", single)
	}
}
