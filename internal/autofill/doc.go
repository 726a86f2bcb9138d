// Package autofill enters address history into the study's web forms with a
// headless Chrome session driven by chromedp. Rows are grouped by Med_ID,
// each subject's form is opened from a URL template, its panels are filled
// and the form is saved. Every browser wait is bounded and submissions are
// paced by a rate limiter.
package autofill
