// Package keywords derives the keyword signature of a note.
//
// A signature is the ordered list of the most frequent qualifying tokens of a
// note, at most K long. Text is NFC-normalized and lower-cased, split on
// Unicode word boundaries (UAX#29, via bleve's unicode tokenizer), and
// filtered: tokens must be purely alphanumeric, longer than two characters and
// not English stopwords. Ties in frequency keep first-occurrence order.
package keywords
