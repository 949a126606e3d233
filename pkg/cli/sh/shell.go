package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/hdlc485/pkg/env"
	"github.com/robotalks/hdlc485/pkg/hdlc"
	"github.com/robotalks/hdlc485/pkg/link"
	"github.com/robotalks/hdlc485/pkg/sim"
)

// Shell provides ishell backed interactive shell over a station.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *env.Config
	Station *link.Station
	// Peer is the simulated secondary, nil on real hardware.
	Peer *sim.Secondary

	frames []FrameResult
}

// FrameResult is a received frame as printed by the shell.
type FrameResult struct {
	Data  string `json:"data"`
	Valid bool   `json:"valid"`
}

// Status is the link status as printed by the shell.
type Status struct {
	Address   string `json:"address"`
	BaudRate  uint32 `json:"baud_rate"`
	Connected bool   `json:"connected"`
	SendSeq   uint8  `json:"vs"`
	RecvSeq   uint8  `json:"vr"`
	Peer      string `json:"peer,omitempty"`
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&SendCmd,
		&RawCmd,
		&RecvCmd,
		&TakeCmd,
		&StatusCmd,
		&PeerCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell with a station built from conf.
func New(conf *env.Config) (*Shell, error) {
	s, err := newShell(conf)
	if err != nil {
		return nil, err
	}
	s.Interactive, s.OutputJSON = !evalOnly, outputJSON
	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(fmt.Sprintf("[%02x] > ", conf.Address))
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s, nil
}

func newShell(conf *env.Config) (*Shell, error) {
	s := &Shell{Config: conf}
	var onFrame hdlc.FrameFunc
	if conf.Delivery == env.DeliveryCallback {
		onFrame = s.collect
	}
	st, err := conf.NewStation(onFrame)
	if err != nil {
		return nil, err
	}
	s.Station = st
	s.Peer = env.SimPeer(st.Driver())
	return s, nil
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Connect performs the SNRM/UA handshake.
func (s *Shell) Connect() error {
	return s.Station.Connect()
}

// Send sends hex data as an I-frame and waits for the acknowledgment.
func (s *Shell) Send(str string) error {
	payload, err := hdlc.ParseHex(str)
	if err != nil {
		return err
	}
	return s.Station.SendData(payload, s.Config.AckTimeout)
}

// Raw transmits hex data as a raw frame.
func (s *Shell) Raw(str string) error {
	return s.Station.SendHex(str)
}

// Receive waits for one frame and returns what was delivered.
func (s *Shell) Receive(timeout time.Duration) ([]FrameResult, error) {
	if err := s.Station.ReceiveFrame(timeout); err != nil {
		return nil, err
	}
	return s.Take(), nil
}

// Take drains received frames, from the slot or the callback buffer.
func (s *Shell) Take() []FrameResult {
	frames := s.frames
	s.frames = nil
	if r, ok := s.Station.TakeFrame(); ok {
		frames = append(frames, FrameResult{Data: hdlc.FormatHex(r.Data), Valid: r.Valid})
	}
	return frames
}

// Status reports the link status.
func (s *Shell) Status() Status {
	st := Status{
		Address:   fmt.Sprintf("%02X", s.Station.Address()),
		BaudRate:  s.Station.Driver().Config().BaudRate,
		Connected: s.Station.Connected(),
		SendSeq:   uint8(s.Station.SendSeq()),
		RecvSeq:   uint8(s.Station.RecvSeq()),
	}
	if s.Peer != nil {
		st.Peer = s.Peer.Policy().String()
	}
	return st
}

// SetPeerPolicy changes how the simulated secondary answers.
func (s *Shell) SetPeerPolicy(name string) error {
	if s.Peer == nil {
		return fmt.Errorf("bus is not simulated")
	}
	p, err := sim.ParsePolicy(name)
	if err != nil {
		return err
	}
	s.Peer.SetPolicy(p)
	return nil
}

func (s *Shell) collect(data []byte, valid bool) {
	s.frames = append(s.frames, FrameResult{Data: hdlc.FormatHex(data), Valid: valid})
}

// Print writes v as JSON in JSON mode, or text otherwise.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// FormatFrames formats received frames for display.
func FormatFrames(frames []FrameResult) string {
	if len(frames) == 0 {
		return "No frame"
	}
	lines := make([]string, len(frames))
	for n, f := range frames {
		if f.Valid {
			lines[n] = "VALID - " + f.Data
		} else {
			lines[n] = "INVALID CRC - " + f.Data
		}
	}
	return strings.Join(lines, "\n")
}

// FormatStatus formats the status for display.
func FormatStatus(st Status) string {
	s := fmt.Sprintf("address=%s baud=%d connected=%v V(S)=%d V(R)=%d",
		st.Address, st.BaudRate, st.Connected, st.SendSeq, st.RecvSeq)
	if st.Peer != "" {
		s += " peer=" + st.Peer
	}
	return s
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func okOrErr(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	s := ShellFrom(c)
	s.Print(c, s.Status(), "OK")
}

var (
	// ConnectCmd performs the SNRM/UA handshake.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			okOrErr(c, ShellFrom(c).Connect())
		},
	}

	// SendCmd sends an I-frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "HEX",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			okOrErr(c, ShellFrom(c).Send(strings.Join(c.Args, "")))
		},
	}

	// RawCmd transmits a raw frame.
	RawCmd = ishell.Cmd{
		Name:    "raw",
		Aliases: []string{"x"},
		Help:    "HEX",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			okOrErr(c, ShellFrom(c).Raw(strings.Join(c.Args, "")))
		},
	}

	// RecvCmd waits for a frame.
	RecvCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "[TIMEOUT(ms)]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			timeout := s.Config.AckTimeout
			if len(c.Args) > 0 {
				ms, err := strconv.ParseUint(c.Args[0], 10, 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid TIMEOUT: %v", err))
					return
				}
				timeout = time.Duration(ms) * time.Millisecond
			}
			frames, err := s.Receive(timeout)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, frames, FormatFrames(frames))
		},
	}

	// TakeCmd drains received frames.
	TakeCmd = ishell.Cmd{
		Name:    "take",
		Aliases: []string{"t"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			frames := s.Take()
			if frames == nil {
				frames = []FrameResult{}
			}
			s.Print(c, frames, FormatFrames(frames))
		},
	}

	// StatusCmd prints the link status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.Status()
			s.Print(c, st, FormatStatus(st))
		},
	}

	// PeerCmd shows or changes the simulated secondary policy.
	PeerCmd = ishell.Cmd{
		Name: "peer",
		Help: "[ack|reject|silent]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				if err := s.SetPeerPolicy(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			st := s.Status()
			if st.Peer == "" {
				c.Err(fmt.Errorf("bus is not simulated"))
				return
			}
			s.Print(c, st, st.Peer)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s, err := New(env.NewConfig())
	if err != nil {
		log.Fatalln(err)
	}
	s.Run(flag.Args()...)
}
