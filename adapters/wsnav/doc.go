// Package wsnav bridges the router to app shells connected over WebSocket.
// The Hub implements navigation.Navigator by broadcasting navigate frames to
// every client, and reports link and notification frames sent by clients
// back to the host.
//
// Example usage (in your app):
//
//	links := sources.NewLinkFeed("")
//	notes := sources.NewNotificationFeed()
//	hub := wsnav.NewHub(wsnav.Options{
//		OnLink:         links.Open,
//		OnNotification: wsnav.FeedNotifications(notes),
//	})
//	module, _ := linkrouter.NewModule(ctx, linkrouter.ModuleOptions{
//		Navigator:            hub,
//		LinkPlatform:         links,
//		NotificationPlatform: notes,
//	})
//	router.Handle("/ws", hub)
package wsnav
