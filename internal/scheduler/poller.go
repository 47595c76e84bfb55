// Package scheduler запускает периодические задачи диспетчера.
//
// Задачи одного типа никогда не выполняются параллельно: gocron работает в
// SingletonModeAll, а внеплановый запуск через RunNow ждёт на мьютексе задачи.
// Плановый тик, пришедший во время внепланового запуска, пропускается.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/metrics"
)

var (
	// ErrUnknownJob задача с таким именем не зарегистрирована.
	ErrUnknownJob = errors.New("unknown job")
	// ErrInvalidJob у задачи нет имени, функции или расписания.
	ErrInvalidJob = errors.New("invalid job")
)

// Func тело задачи. now передаётся в часовом поясе планировщика.
type Func func(ctx context.Context, now time.Time) error

// Job описание задачи. Задаётся либо Interval (с задержкой FirstRun),
// либо At — ежедневный запуск в HH:MM.
type Job struct {
	Name     string
	Interval time.Duration
	FirstRun time.Duration
	At       string
	Run      Func
	// Forced используется RunNow вместо Run, если задан.
	Forced Func
}

type entry struct {
	job Job
	mu  sync.Mutex
}

// Poller планировщик задач.
type Poller struct {
	cron    *gocron.Scheduler
	loc     *time.Location
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	jobs     map[string]*entry
	baseCtx  context.Context
	inflight sync.WaitGroup
}

// New создаёт планировщик в часовом поясе loc. m может быть nil.
func New(loc *time.Location, m *metrics.Metrics, log *slog.Logger) *Poller {
	if loc == nil {
		loc = time.UTC
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	return &Poller{
		cron:    cron,
		loc:     loc,
		metrics: m,
		log:     log.With(slog.String("component", "scheduler")),
		now:     time.Now,
		jobs:    make(map[string]*entry),
		baseCtx: context.Background(),
	}
}

// Register добавляет задачу в расписание.
func (p *Poller) Register(job Job) error {
	const op = "scheduler.Poller.Register"

	if job.Name == "" || job.Run == nil || (job.Interval <= 0 && job.At == "") {
		return fmt.Errorf("%s: %q: %w", op, job.Name, ErrInvalidJob)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.jobs[job.Name]; ok {
		return fmt.Errorf("%s: %q already registered: %w", op, job.Name, ErrInvalidJob)
	}

	e := &entry{job: job}
	tick := func() { p.scheduled(e) }

	var err error
	if job.At != "" {
		_, err = p.cron.Every(1).Day().At(job.At).Tag(job.Name).Do(tick)
	} else {
		s := p.cron.Every(job.Interval).Tag(job.Name)
		if job.FirstRun > 0 {
			s = s.StartAt(time.Now().Add(job.FirstRun))
		} else {
			s = s.StartImmediately()
		}
		_, err = s.Do(tick)
	}
	if err != nil {
		return fmt.Errorf("%s: %q: %w", op, job.Name, err)
	}

	p.jobs[job.Name] = e
	p.log.Info("job registered",
		slog.String("job", job.Name), slog.Duration("interval", job.Interval), slog.String("at", job.At))
	return nil
}

// Start запускает планировщик. ctx передаётся плановым запускам.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.baseCtx = ctx
	p.mu.Unlock()

	p.cron.StartAsync()
	p.log.Info("scheduler started", slog.Int("jobs", p.cron.Len()))
}

// Stop останавливает планировщик и дожидается текущих запусков.
func (p *Poller) Stop() {
	p.cron.Stop()
	p.inflight.Wait()
	p.log.Info("scheduler stopped")
}

// RunNow запускает задачу вне расписания, дождавшись завершения текущего запуска.
func (p *Poller) RunNow(ctx context.Context, name string) error {
	const op = "scheduler.Poller.RunNow"

	p.mu.RLock()
	e, ok := p.jobs[name]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %q: %w", op, name, ErrUnknownJob)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.job.Run
	if e.job.Forced != nil {
		fn = e.job.Forced
	}
	if err := p.execute(ctx, e.job.Name, fn, "forced"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Poller) scheduled(e *entry) {
	if !e.mu.TryLock() {
		p.log.Warn("previous run still in progress, tick skipped", slog.String("job", e.job.Name))
		return
	}
	defer e.mu.Unlock()

	p.mu.RLock()
	ctx := p.baseCtx
	p.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}
	// ошибка уже залогирована, следующий тик начинается с чистого листа
	_ = p.execute(ctx, e.job.Name, e.job.Run, "scheduled")
}

func (p *Poller) execute(ctx context.Context, name string, fn Func, trigger string) error {
	p.inflight.Add(1)
	defer p.inflight.Done()

	log := p.log.With(slog.String("job", name), slog.String("run_id", uuid.NewString()), slog.String("trigger", trigger))
	start := time.Now()
	log.Debug("job started")

	err := fn(ctx, p.now().In(p.loc))

	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		log.Error("job failed", slog.Duration("duration", elapsed), sl.Err(err))
	} else {
		log.Info("job finished", slog.Duration("duration", elapsed))
	}
	if p.metrics != nil {
		p.metrics.JobRuns.WithLabelValues(name, status).Inc()
		p.metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	return err
}
