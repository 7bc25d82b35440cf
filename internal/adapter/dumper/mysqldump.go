package dumper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/aulianza/dbarc/internal/config"
	"github.com/aulianza/dbarc/internal/domain"
)

// ExecDumper shells out to mysqldump and streams its output through gzip
// into the destination file.
type ExecDumper struct {
	cfg *config.Config
	log Logger
}

func NewExec(cfg *config.Config, log Logger) *ExecDumper {
	return &ExecDumper{cfg: cfg, log: log}
}

func (d *ExecDumper) Name() string {
	if d.cfg.Database.Database != "" {
		return d.cfg.Database.Database
	}
	return d.cfg.Database.Host
}

// clientArgs are the connection flags shared by mysql and mysqldump
// invocations.
func (d *ExecDumper) clientArgs() []string {
	db := d.cfg.Database
	args := []string{
		fmt.Sprintf("--host=%s", db.Host),
		fmt.Sprintf("--port=%d", db.Port),
		fmt.Sprintf("--user=%s", db.Username),
		fmt.Sprintf("--password=%s", db.Password),
	}
	if d.cfg.Dump.CompatAuth {
		args = append(args, "--default-auth=mysql_native_password")
	}
	return args
}

func (d *ExecDumper) Ping(ctx context.Context) error {
	args := append(d.clientArgs(), "-e", "SELECT 1")
	cmd := exec.CommandContext(ctx, d.cfg.Dump.MysqlPath, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: mysql ping %s:%d: %v", domain.ErrConnection, d.cfg.Database.Host, d.cfg.Database.Port, err)
	}
	return nil
}

func (d *ExecDumper) Dump(ctx context.Context, outputPath string) error {
	databases, err := d.databases(ctx)
	if err != nil {
		return err
	}
	if len(databases) == 0 {
		return fmt.Errorf("%w: no databases to dump", domain.ErrQuery)
	}

	args := d.dumpArgs(databases)
	if d.cfg.App.Debug {
		d.log.Debugf("dump command: %s %s", d.cfg.Dump.MysqldumpPath, strings.Join(maskPassword(args), " "))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)

	cmd := exec.CommandContext(ctx, d.cfg.Dump.MysqldumpPath, args...)
	cmd.Stdout = gz
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}

	benign, fatal := classifyStderr(stderr.String())
	for _, line := range benign {
		d.log.Warnf("mysqldump: %s", line)
	}

	if runErr != nil {
		if d.cfg.App.Debug {
			d.log.Debugf("mysqldump stderr: %s", stderr.String())
		}
		return fmt.Errorf("%w: mysqldump: %v: %s", domain.ErrSubprocess, runErr, strings.TrimSpace(stderr.String()))
	}
	if len(fatal) > 0 {
		return fmt.Errorf("%w: mysqldump reported: %s", domain.ErrSubprocess, strings.Join(fatal, "; "))
	}
	return nil
}

// dumpArgs always uses --databases so the dump carries CREATE DATABASE
// statements for each schema it covers.
func (d *ExecDumper) dumpArgs(databases []string) []string {
	args := append(d.clientArgs(),
		"--single-transaction",
		"--quick",
		"--routines",
		"--triggers",
		"--events",
		"--databases",
	)
	return append(args, databases...)
}

// databases resolves the dump target list: the configured schema, or every
// schema reported by the server minus the system ones.
func (d *ExecDumper) databases(ctx context.Context) ([]string, error) {
	if d.cfg.Database.Database != "" {
		return []string{d.cfg.Database.Database}, nil
	}

	args := append(d.clientArgs(), "-N", "-B", "-e", "SHOW DATABASES")
	cmd := exec.CommandContext(ctx, d.cfg.Dump.MysqlPath, args...)
	out, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = ": " + strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%w: list databases: %v%s", domain.ErrSubprocess, err, detail)
	}

	return filterSystemSchemas(splitLines(string(out))), nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// classifyStderr splits diagnostic output into benign warnings, logged and
// ignored, and everything else, which fails the dump even on a zero exit
// status. The benign set covers the client's password-on-command-line
// notice and authentication-plugin warnings.
func classifyStderr(s string) (benign, fatal []string) {
	for _, line := range splitLines(s) {
		if benignStderrLine(line) {
			benign = append(benign, line)
		} else {
			fatal = append(fatal, line)
		}
	}
	return benign, fatal
}

func benignStderrLine(line string) bool {
	if strings.Contains(line, "Using a password on the command line interface can be insecure") {
		return true
	}
	if strings.Contains(line, "[Warning]") {
		return true
	}
	return strings.HasPrefix(line, "Warning:")
}

func maskPassword(args []string) []string {
	masked := make([]string, len(args))
	for i, arg := range args {
		if strings.HasPrefix(arg, "--password=") {
			masked[i] = "--password=***"
		} else {
			masked[i] = arg
		}
	}
	return masked
}
