package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/otp"
)

var issueOpts struct {
	category   string
	batch      string
	name       string
	phone      string
	letterType string
	subtype    string
	fields     map[string]string
	outDir     string
	yes        bool
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Fill, preview and submit a single letter or certificate",
	Example: `  certctl issue --category FSD --name "Aarav Sharma" --phone 919876543210 \
    --letter-type "Warning Letter" --subtype "Warning for Low Attendance" \
    --field issueDate=2025-01-15 --field attendancePercent=45`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		client := newClient()
		gate := otp.NewGate(client, otp.WithDevBypass(viper.GetBool(keyDevBypass)))
		saver := issuance.DirSaver{Dir: issueOpts.outDir}
		wf := issuance.NewWorkflow(cat, issuance.NewExecutor(cat, client), gate, issuance.NewMemoryStore(), issuance.Options{
			Saver:  saver,
			Logger: logger.Named("workflow"),
		})
		defer wf.Close()

		for _, a := range issueActions() {
			if _, err := wf.Apply(a); err != nil {
				return err
			}
		}
		if err := wf.Validate(); err != nil {
			return err
		}

		s := &issueSession{
			wf:    wf,
			saver: saver,
			in:    bufio.NewScanner(cmd.InOrStdin()),
			out:   cmd.OutOrStdout(),
			errw:  cmd.ErrOrStderr(),
		}
		return s.run(rootCtx)
	},
}

func init() {
	f := issueCmd.Flags()
	f.StringVar(&issueOpts.category, "category", "", "category, e.g. FSD")
	f.StringVar(&issueOpts.batch, "batch", "", "batch")
	f.StringVar(&issueOpts.name, "name", "", "recipient name")
	f.StringVar(&issueOpts.phone, "phone", "", "recipient phone; the OTP goes here")
	f.StringVar(&issueOpts.letterType, "letter-type", "", "letter type")
	f.StringVar(&issueOpts.subtype, "subtype", "", "letter subtype, when the type has any")
	f.StringToStringVar(&issueOpts.fields, "field", nil, "situational field as name=value (repeatable)")
	f.StringVar(&issueOpts.outDir, "out", ".", "directory for the preview and the issued document")
	f.BoolVarP(&issueOpts.yes, "yes", "y", false, "submit without asking after the preview")
}

// issueActions turns the flags into reducer actions in dependency order.
func issueActions() []form.Action {
	var actions []form.Action
	if issueOpts.category != "" {
		actions = append(actions, form.SetCategory(issueOpts.category))
	}
	if issueOpts.name != "" || issueOpts.phone != "" {
		actions = append(actions, form.SetRecipient(issueOpts.name, issueOpts.phone))
	}
	if issueOpts.batch != "" {
		actions = append(actions, form.SetBatch(issueOpts.batch))
	}
	if issueOpts.letterType != "" {
		actions = append(actions, form.SetLetterType(issueOpts.letterType))
	}
	if issueOpts.subtype != "" {
		actions = append(actions, form.SetSubtype(issueOpts.subtype))
	}

	names := make([]string, 0, len(issueOpts.fields))
	for name := range issueOpts.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		actions = append(actions, form.SetField(catalog.Field(name), issueOpts.fields[name]))
	}
	return actions
}

type issueSession struct {
	wf    *issuance.Workflow
	saver issuance.Saver
	in    *bufio.Scanner
	out   io.Writer
	errw  io.Writer
}

var errAborted = errors.New("aborted")

func (s *issueSession) run(ctx context.Context) error {
	if err := s.wf.RequestOTP(ctx); err != nil {
		return err
	}
	f := s.wf.Form()
	if s.wf.Gate().DevBypass() {
		fmt.Fprintln(s.errw, "OTP dev bypass is on; any 6-digit code is accepted.")
	} else {
		fmt.Fprintf(s.out, "OTP sent to %s (%s)\n", f.Name, f.Phone)
	}

	preview, err := s.verify(ctx)
	if err != nil {
		return err
	}
	path, err := s.savePreview(ctx, preview)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Preview written to %s\n", path)

	if !issueOpts.yes {
		answer, err := s.prompt("Submit this document? [y/N]: ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			return errAborted
		}
	}

	receipt, err := s.wf.Submit(ctx)
	if err != nil {
		return err
	}
	if receipt.LetterID != "" {
		fmt.Fprintf(s.out, "Issued %s\n", receipt.LetterID)
	}
	fmt.Fprintf(s.out, "Saved to %s\n", receipt.SavedTo)
	return nil
}

// verify prompts until a code is accepted and returns the rendered preview.
func (s *issueSession) verify(ctx context.Context) (issuance.Artifact, error) {
	for {
		answer, err := s.prompt("Enter OTP (r to resend, q to quit): ")
		if err != nil {
			return issuance.Artifact{}, err
		}
		switch strings.ToLower(answer) {
		case "q", "quit":
			s.wf.CancelOTP()
			return issuance.Artifact{}, errAborted
		case "r", "resend":
			if err := s.resend(ctx); err != nil {
				fmt.Fprintln(s.errw, issuance.UserMessage(err))
			}
			continue
		}

		a, err := s.wf.SubmitOTP(ctx, answer)
		if err == nil {
			return a, nil
		}
		if issuance.ClosesOTPDialog(err) {
			return issuance.Artifact{}, err
		}
		if errors.Is(err, otp.ErrInvalidCode) || errors.Is(err, otp.ErrMalformedCode) {
			fmt.Fprintln(s.errw, issuance.UserMessage(err))
			continue
		}
		return issuance.Artifact{}, err
	}
}

// resend waits out the cooldown with a live countdown, then resends.
func (s *issueSession) resend(ctx context.Context) error {
	gate := s.wf.Gate()
	if gate.CooldownRemaining() > 0 {
		cd := otp.StartCountdown(ctx, time.Second, gate.CooldownRemaining, func(left int) {
			fmt.Fprintf(s.errw, "\rResend available in %2ds", left)
		})
		<-cd.Done()
		fmt.Fprintln(s.errw)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := s.wf.ResendOTP(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "OTP resent")
	return nil
}

func (s *issueSession) prompt(label string) (string, error) {
	fmt.Fprint(s.errw, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errAborted
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *issueSession) savePreview(ctx context.Context, a issuance.Artifact) (string, error) {
	name := fmt.Sprintf("preview-%s%s", time.Now().Format("20060102-150405"), extensionFor(a.ContentType))
	doc := &backend.Document{Data: a.Data, ContentType: a.ContentType, Kind: a.Kind}
	path, err := s.saver.Save(ctx, name, doc)
	if err != nil {
		logger.Warn("preview not saved", zap.Error(err))
		return "", err
	}
	return path, nil
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	switch mt {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
