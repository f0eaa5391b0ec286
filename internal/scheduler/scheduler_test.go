package scheduler

import "testing"

func TestScheduleRefresh(t *testing.T) {
	s := New()
	defer s.StopRefresh()
	if err := s.ScheduleRefresh("@every 12h", func() {}); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleRefresh("@every 12h", func() {}); err == nil {
		t.Error("arming twice must fail")
	}
}

func TestScheduleRefresh_badSpec(t *testing.T) {
	s := New()
	if err := s.ScheduleRefresh("not a cron spec", func() {}); err == nil {
		t.Error("expected error for bad spec")
	}
}

func TestStopRefresh_idempotent(t *testing.T) {
	s := New()
	s.StopRefresh()
	if err := s.ScheduleRefresh("0 4 * * *", func() {}); err != nil {
		t.Fatal(err)
	}
	s.StopRefresh()
	s.StopRefresh()
}
