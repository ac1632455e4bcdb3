package feeders

// Section returns a Feeder that fills a structure from the key table of
// src, so parameters can live under their own key in a file shared with
// other settings.
func Section(src KeyFeeder, key string) Feeder {
	return sectionFeeder{src: src, key: key}
}

type sectionFeeder struct {
	src KeyFeeder
	key string
}

func (s sectionFeeder) Feed(structure any) error {
	return s.src.FeedKey(s.key, structure)
}
