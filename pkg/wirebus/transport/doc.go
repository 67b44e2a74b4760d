/*
Package transport exposes a node's bus over HTTP.

# Overview

Every node runs one small HTTP interface with three routes:

	GET  /status       -> node state, network state, peers, listened events
	POST /emit         -> dispatch an event to the node's local listeners
	GET  /event-names  -> display texts of the events the node listens to

The server answers on behalf of a Backend, the node-side surface that
owns the local bus and the peer registry. Requests and responses use the
wire shapes from the peer package, so a peer.Client on one node and a
transport.Server on another always agree on the format.

# Lifecycle

Start binds the listener and serves in the background. Port 0 asks the
kernel for a free port; BoundPort reports the one chosen, which the node
needs before it can advertise its own address:

	srv := transport.NewServer(backend, transport.ServerConfig{Port: 0})
	if err := srv.Start(); err != nil {
	    return err
	}
	defer srv.Shutdown(context.Background())

	port := srv.BoundPort()

# Authentication

When ServerConfig.Secret is set, every request must carry

	Authorization: Bearer <secret>

and requests without it are rejected with 401. peer.Client sends the
header when constructed with its WithSecret option.
*/
package transport
