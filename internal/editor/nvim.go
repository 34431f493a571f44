package editor

import (
	"fmt"
	"os"

	"github.com/neovim/go-client/nvim"
)

const doneEvent = "xattred_done"

// HostAddress returns the RPC socket of the Neovim instance this process is
// running inside, or "" when there is none.
func HostAddress() string {
	if addr := os.Getenv("NVIM"); addr != "" {
		return addr
	}
	return os.Getenv("NVIM_LISTEN_ADDRESS")
}

// Host is a connection to the surrounding Neovim instance, used to edit the
// dump in a buffer of the editor the user is already in.
type Host struct {
	nvim *nvim.Nvim
}

// DialHost connects to the surrounding Neovim instance.
func DialHost() (*Host, error) {
	addr := HostAddress()
	if addr == "" {
		return nil, fmt.Errorf("not running inside a Neovim instance")
	}
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host Neovim at %s: %w", addr, err)
	}
	return &Host{nvim: v}, nil
}

// Close disconnects from the host.
func (h *Host) Close() {
	if h.nvim != nil {
		h.nvim.Close()
	}
}

// Edit opens path in a split of the host instance and blocks until the user
// closes the window (or quits Neovim). Saving is up to the user; the caller
// reads the file afterwards.
func (h *Host) Edit(path string) error {
	done := make(chan struct{}, 1)
	err := h.nvim.RegisterHandler(doneEvent, func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register edit handler: %w", err)
	}

	cid := h.nvim.ChannelID()

	b := h.nvim.NewBatch()
	b.Command(fmt.Sprintf("split %s", path))
	b.Command("setlocal bufhidden=wipe noswapfile")
	h.defineSyntax(b)
	b.Command(fmt.Sprintf(`autocmd BufWinLeave <buffer> ++once call rpcnotify(%d, '%s')`, cid, doneEvent))
	b.Command(fmt.Sprintf(`autocmd VimLeavePre * ++once call rpcnotify(%d, '%s')`, cid, doneEvent))
	if err := b.Execute(); err != nil {
		return fmt.Errorf("failed to open edit buffer in host: %w", err)
	}

	<-done
	return nil
}

// defineSyntax highlights the buffer along the value classification used
// everywhere else: quoted string, hex, base64, anything else plain.
func (h *Host) defineSyntax(b *nvim.Batch) {
	b.Command(`syntax match xattredName /^[^=]\+\ze=/`)
	b.Command(`syntax match xattredString /=\zs".*$/`)
	b.Command(`syntax match xattredHex /=\zs0[xX]\x*$/`)
	b.Command(`syntax match xattredBase64 /=\zs0[sS]\S*$/`)
	b.Command(`syntax match xattredHeader /^# file: .*$/`)
	b.Command("highlight default link xattredHeader Comment")
	b.Command("highlight default link xattredName Identifier")
	b.Command("highlight default link xattredString String")
	b.Command("highlight default link xattredHex Number")
	b.Command("highlight default link xattredBase64 Special")
}
