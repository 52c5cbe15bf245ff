/*
Package runner hosts a joined conversation on a terminal or a pipe.

It is the bridge between a client.Conversation and the outside world. Session
callbacks are queued on an Inbox; the Runner drains it on one goroutine, hands
every status change and merged message to an IOHandler and sends the commands
the handler produces back to the conversation.

# Key Components

  - Runner: the loop that drains an Inbox and sends commands.
  - Inbox: client.Handlers that queue session callbacks in wire order.
  - TextHandler: interactive rendering with numbered answers and lead forms.
  - JSONHandler: NDJSON events on stdout, NDJSON commands on stdin.

# Usage

	inbox := runner.NewInbox(runner.DefaultInboxSize)
	sess, err := smoc.Join(ctx, flowURL, inbox.Handlers())
	if err != nil {
		return err
	}
	defer sess.Leave()

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	return r.Run(ctx, sess, inbox)
*/
package runner
