package gopher

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/sandwichfarm/gopherd/internal/config"
	"github.com/sandwichfarm/gopherd/internal/ops"
)

// slotState is the lifecycle of one entry in the connection supervisor's
// fixed-size slot table.
type slotState int32

const (
	slotFree slotState = iota
	slotInUse
	slotFinished
)

// slot is one entry of the supervisor's fixed-size connection table. Its
// state is published with atomic Store/Load/CompareAndSwap: the accept loop
// stores IN_USE, the handler goroutine stores FINISHED and then swaps it
// back to FREE when it reaps its own slot, and Diagnostics reads it from
// any goroutine, all without a mutex on the hot path.
type slot struct {
	state atomic.Int32

	mu   sync.Mutex
	conn net.Conn
}

// Server is the connection supervisor: a single accept loop dispatching
// into a fixed MAX_CONNECTIONS-sized slot table. No queueing happens
// beyond the OS listen backlog — once every slot is IN_USE, the
// supervisor stops accepting until a handler finishes and its slot is
// reaped, which throttles new connections at the OS level by design.
type Server struct {
	cfg     *config.Config
	docroot string
	logger  *ops.Logger

	listener  net.Listener
	slots     []slot
	freeSlots chan int
	wg        sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	diag          *ops.DiagnosticsCollector
	totalAccepted atomic.Uint64
	totalErrors   atomic.Uint64

	stopOnce sync.Once
}

// New builds a Server bound to docroot, sized and timed out per cfg.
func New(cfg *config.Config, docroot string, logger *ops.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		docroot:   docroot,
		logger:    logger,
		slots:     make([]slot, cfg.Listen.MaxConnections),
		freeSlots: make(chan int, cfg.Listen.MaxConnections),
		ctx:       ctx,
		cancel:    cancel,
		diag:      ops.NewDiagnosticsCollector(),
	}
}

// reuseAddrControl sets SO_REUSEADDR on the listening socket before bind,
// matching the protocol's startup requirement so a restarted server isn't
// blocked by sockets lingering in TIME_WAIT.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var controlErr error
	err := c.Control(func(fd uintptr) {
		controlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return controlErr
}

// Start binds the listening socket and begins accepting connections on a
// background goroutine.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Listen.Bind, s.cfg.Listen.Port)

	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(s.ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("gopher: listen on %s: %w", addr, err)
	}
	s.listener = ln

	for i := range s.slots {
		s.freeSlots <- i
	}

	fmt.Printf("Server running on %s:%d\n", s.cfg.Listen.Bind, s.cfg.Listen.Port)
	s.logger.LogStartup(addr, s.docroot)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop is the supervisor's main loop: it blocks for a free slot
// before ever calling Accept, so once every slot is IN_USE no new
// connection is pulled off the listener until a handler finishes.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		var slotIdx int
		select {
		case <-s.ctx.Done():
			return
		case slotIdx = <-s.freeSlots:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.totalErrors.Add(1)
			fmt.Printf("Accept error: %v\n", err)
			s.freeSlots <- slotIdx
			continue
		}

		s.totalAccepted.Add(1)
		s.slots[slotIdx].mu.Lock()
		s.slots[slotIdx].conn = conn
		s.slots[slotIdx].mu.Unlock()
		s.slots[slotIdx].state.Store(int32(slotInUse))

		s.logger.LogAccept(slotIdx, conn.RemoteAddr().String())
		fmt.Printf("Connection from %s\n", conn.RemoteAddr())

		s.wg.Add(1)
		go s.runHandler(slotIdx, conn)
	}
}

// runHandler executes one transaction and then reaps its own slot. This
// is the channel-based alternative to a supervisor poll loop: the handler
// publishes FINISHED and hands the slot back itself instead of the
// supervisor scanning the table for it.
func (s *Server) runHandler(slotIdx int, conn net.Conn) {
	defer s.wg.Done()

	HandleTransaction(conn, s.docroot, s.cfg, s.logger)

	s.slots[slotIdx].mu.Lock()
	s.slots[slotIdx].conn = nil
	s.slots[slotIdx].mu.Unlock()
	s.slots[slotIdx].state.Store(int32(slotFinished))

	s.reap(slotIdx)
}

// reap transitions a FINISHED slot back to FREE and returns it to the
// pool the accept loop draws from.
func (s *Server) reap(slotIdx int) {
	if s.slots[slotIdx].state.CompareAndSwap(int32(slotFinished), int32(slotFree)) {
		s.logger.LogReap(slotIdx)
		select {
		case s.freeSlots <- slotIdx:
		case <-s.ctx.Done():
		}
	}
}

// Stop performs a graceful, idempotent shutdown: stop accepting new
// connections, close every in-flight connection so its blocked I/O fails
// and its handler can exit, then wait for every handler to finish.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		fmt.Println("Stopping the server...")
		s.logger.LogShutdown("stop requested")

		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}

		for i := range s.slots {
			s.slots[i].mu.Lock()
			conn := s.slots[i].conn
			s.slots[i].mu.Unlock()
			if conn != nil {
				conn.Close()
			}
		}

		s.wg.Wait()
	})
}

// Diagnostics returns a point-in-time snapshot of process health and the
// slot table, used by the bootstrap's SIGHUP handler.
func (s *Server) Diagnostics() (ops.SystemStats, ops.ConnectionStats) {
	var active, free int
	for i := range s.slots {
		if slotState(s.slots[i].state.Load()) == slotInUse {
			active++
		} else {
			free++
		}
	}

	connStats := ops.ConnectionStats{
		ActiveSlots:   active,
		FreeSlots:     free,
		TotalAccepted: s.totalAccepted.Load(),
		TotalErrors:   s.totalErrors.Load(),
	}
	return s.diag.CollectSystemStats(), connStats
}
