// Command seed populates an Inkwell database with demo posts, likes, and
// comments. It writes through the store directly so it needs no identity
// provider; the seeded user ids are stable so a dev token minted for one of
// them exercises the ownership paths.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/inkwellhq/inkwell/internal/blog"
	"github.com/inkwellhq/inkwell/internal/store/sqlite"
)

var authors = []struct {
	id   string
	name string
}{
	{"00000000-0000-4000-8000-000000000001", "Ada Quill"},
	{"00000000-0000-4000-8000-000000000002", "Basil Verse"},
	{"00000000-0000-4000-8000-000000000003", "Clara Margin"},
	{"00000000-0000-4000-8000-000000000004", "Dorian Draft"},
	{"00000000-0000-4000-8000-000000000005", "Edith Folio"},
}

var posts = []struct {
	title   string
	content string
	tags    []string
}{
	{"Welcome to Inkwell", "<p>A place to write, read, and listen to posts.</p>", []string{"meta"}},
	{"Why I Still Write Long-Form", "<p>Short posts are snacks. Essays are meals.</p>", []string{"writing", "opinion"}},
	{"A Field Guide to Draft Zero", "<p>The first draft exists so the second one can.</p>", []string{"writing"}},
	{"Listening to Your Own Posts", "<p>Text-to-speech catches clunky sentences your eyes skip.</p>", []string{"tools", "tts"}},
	{"Letting a Model Draft For You", "<p>Generated drafts are scaffolding, not the building.</p>", []string{"ai", "writing"}},
	{"On Tagging Things Properly", "<p>Tags are for the reader you will be in six months.</p>", []string{"meta", "organization"}},
	{"The Case for Comment Sections", "<p>A post without replies is a speech, not a conversation.</p>", []string{"opinion"}},
	{"Notes From a Month of Daily Posting", "<p>Day 12 was the hardest. Day 30 was the easiest.</p>", []string{"writing", "habits"}},
	{"Embedding Images the Lazy Way", "<p>One cover image per post is plenty.</p>", []string{"tools"}},
	{"What Likes Actually Measure", "<p>Reach, mostly. Occasionally resonance.</p>", []string{"opinion", "meta"}},
}

var comments = []string{
	"This put words to something I have felt for a while.",
	"Strong disagree on the middle section, but well argued.",
	"Bookmarking this for my next draft.",
	"The TTS tip alone was worth the read.",
	"Would love a follow-up with concrete examples.",
	"Short and exactly right.",
	"I tried this today and it worked.",
	"Counterpoint: some speeches are worth giving.",
	"Day 12 broke me too.",
	"More of this, please.",
}

func main() {
	dbPath := flag.String("db", "inkwell.db", "Database path")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	st, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer st.Close()

	svc := blog.NewService(st)
	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	fmt.Printf("Seeding %s with %d posts by %d authors...\n", *dbPath, len(posts), len(authors))

	created := make([]string, 0, len(posts))
	for i, p := range posts {
		author := authors[i%len(authors)]
		post, err := svc.Create(ctx, author.id, author.name, p.title, p.content, nil, p.tags)
		if err != nil {
			log.Fatalf("failed to create %q: %v", p.title, err)
		}
		created = append(created, post.ID)
	}

	var likes, commented int
	for _, postID := range created {
		for _, author := range authors {
			if rng.Intn(3) == 0 {
				continue
			}
			if err := svc.Like(ctx, postID, author.id, author.name); err != nil {
				log.Fatalf("failed to like %s: %v", postID, err)
			}
			likes++
		}
		n := rng.Intn(4)
		for j := 0; j < n; j++ {
			author := authors[rng.Intn(len(authors))]
			text := comments[rng.Intn(len(comments))]
			if _, err := svc.AddComment(ctx, postID, author.id, author.name, text); err != nil {
				log.Fatalf("failed to comment on %s: %v", postID, err)
			}
			commented++
		}
	}

	fmt.Printf("Done: %d posts, %d likes, %d comments.\n", len(created), likes, commented)
	fmt.Println("\nDemo author ids:")
	for _, a := range authors {
		fmt.Printf("  %s  %s\n", a.id, a.name)
	}
}
