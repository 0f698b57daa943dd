// Package objectmodel binds HTML markup to in-memory models.
//
// Authors mark elements with directive attributes and register templates
// under model names:
//
//	<div js:object-model="counter" id="main">
//	    <span js:content="count"></span>
//	    <button js:on-click="inc">+</button>
//	</div>
//
//	c := objectmodel.New(doc)
//	c.CreateModel("counter", model.Template{
//	    "count": model.Data(0),
//	    "inc": model.Handler(func(in *model.Instance, _ dom.Event) {
//	        in.Set("count", in.Value("count").(int)+1)
//	    }),
//	})
//	c.Initialize()
//
// Once the document is ready, every model root is bound to a new instance.
// Writes through Instance.Set update each bound node synchronously. Roots
// whose template is not registered yet are queued and bound when
// CreateModel supplies it.
//
// # Directives
//
//	js:object-model="name"   root of one instance
//	js:content="prop"        text content follows prop
//	js:on-<event>="handler"  event listener
//	js:ref="prop"            the element becomes prop's value
//	js:switch="prop"         children with js:case="v" are shown when prop == v
//	js:attr="name:prop"      attribute follows prop
//	js:router="/path"        root of path-guarded children
//	js:path="/p"             shown only while the current path is /p
//	js:link="title"          click navigates to href through session history
//
// Directives are consumed: they are removed from the element once bound.
//
// The document itself is abstracted by package dom. Package dom/htmldoc
// provides a server-side implementation on golang.org/x/net/html and
// dom/jsdoc one for WebAssembly builds.
package objectmodel
