package operations

import (
	"fmt"
	"io"
	"time"
)

// StepTiming records one execution of a step, for one domain or globally
type StepTiming struct {
	Step     string
	Domain   string
	Duration time.Duration
	Status   StepStatus
	Err      error
}

// Summary describes a completed (or interrupted) pipeline run
type Summary struct {
	Pipeline  string
	RunID     string
	Timings   []StepTiming
	Total     time.Duration
	Cancelled bool
}

func (s *Summary) record(t StepTiming) {
	s.Timings = append(s.Timings, t)
}

// Failed reports whether any step execution failed
func (s *Summary) Failed() bool {
	return len(s.Failures()) > 0
}

// Failures returns the failed executions in run order
func (s *Summary) Failures() []StepTiming {
	return s.filter(StepStatusFailed)
}

// Skipped returns the skipped executions in run order
func (s *Summary) Skipped() []StepTiming {
	return s.filter(StepStatusSkipped)
}

func (s *Summary) filter(status StepStatus) []StepTiming {
	var out []StepTiming
	for _, t := range s.Timings {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// StepDuration is the total time spent in one step across domains
type StepDuration struct {
	Step     string
	Duration time.Duration
}

// StepDurations aggregates timings per step, in first-run order
func (s *Summary) StepDurations() []StepDuration {
	index := make(map[string]int)
	var out []StepDuration
	for _, t := range s.Timings {
		i, ok := index[t.Step]
		if !ok {
			index[t.Step] = len(out)
			out = append(out, StepDuration{Step: t.Step})
			i = len(out) - 1
		}
		out[i].Duration += t.Duration
	}
	return out
}

// Print writes the timing summary to w
func (s *Summary) Print(w io.Writer) {
	if s == nil || len(s.Timings) == 0 {
		return
	}

	fmt.Fprintln(w, "\nStep Timing Summary:")
	for _, d := range s.StepDurations() {
		fmt.Fprintf(w, "   %s: %.2f sec\n", d.Step, d.Duration.Seconds())
	}

	if skipped := s.Skipped(); len(skipped) > 0 {
		fmt.Fprintln(w, "\nSkipped:")
		for _, t := range skipped {
			fmt.Fprintf(w, "   %s%s\n", t.Step, domainSuffix(t.Domain))
		}
	}
	if failed := s.Failures(); len(failed) > 0 {
		fmt.Fprintln(w, "\nFailed:")
		for _, t := range failed {
			fmt.Fprintf(w, "   %s%s: %v\n", t.Step, domainSuffix(t.Domain), t.Err)
		}
	}
	if s.Cancelled {
		fmt.Fprintln(w, "\nRun was interrupted before completion.")
	}
	fmt.Fprintf(w, "\nTotal pipeline duration: %.2f seconds.\n", s.Total.Seconds())
}

func domainSuffix(domain string) string {
	if domain == "" {
		return ""
	}
	return " [" + domain + "]"
}
